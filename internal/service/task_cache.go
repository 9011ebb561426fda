package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/pkg/logger"
)

const taskCacheVerKey = "tasks:ver"

// TaskCache 活跃任务列表的读缓存。
// 失效采用版本号自增，旧版本键等 TTL 自然过期，省掉模式删除。
type TaskCache struct {
	cache *redis.Client
	tasks repository.TaskRepository
	ttl   time.Duration
}

func NewTaskCache(cache *redis.Client, tasks repository.TaskRepository, ttl time.Duration) *TaskCache {
	return &TaskCache{cache: cache, tasks: tasks, ttl: ttl}
}

// ListActive 读穿缓存的活跃任务列表；Redis 不可用时直接回源。
func (c *TaskCache) ListActive(ctx context.Context, platformID int64, page, size int) ([]*model.Task, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	if c.cache == nil {
		return c.tasks.ListActive(ctx, platformID, offset, size)
	}

	ver, _ := c.cache.Get(ctx, taskCacheVerKey).Int64()
	key := fmt.Sprintf("tasks:active:v%d:%d:%d:%d", ver, platformID, page, size)
	if data, err := c.cache.Get(ctx, key).Bytes(); err == nil {
		var out []*model.Task
		if uErr := json.Unmarshal(data, &out); uErr == nil {
			return out, nil
		}
	}

	rows, err := c.tasks.ListActive(ctx, platformID, offset, size)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(rows); err == nil {
		_ = c.cache.Set(ctx, key, payload, c.ttl).Err()
	}
	return rows, nil
}

// Invalidate 目录变更后整体失效。
func (c *TaskCache) Invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Incr(ctx, taskCacheVerKey).Err(); err != nil {
		logger.Warn("task cache invalidate failed", zap.Error(err))
	}
}
