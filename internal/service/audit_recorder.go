package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/pkg/logger"
)

// AuditRecorder API 层操作审计的本地异步落库执行器。
// 结算与参与的审计在各自事务内同步写，这里只承接请求维度的旁路记录；
// 队列满直接丢弃并告警，不阻塞请求。
type AuditRecorder struct {
	logs repository.OperationLogRepository
	ch   chan *model.OperationLog
}

func NewAuditRecorder(logs repository.OperationLogRepository, queueSize int) *AuditRecorder {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &AuditRecorder{logs: logs, ch: make(chan *model.OperationLog, queueSize)}
}

// Start 启动 worker，返回停止函数（等待队列排空一小段时间）。
func (r *AuditRecorder) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case entry := <-r.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					if err := r.logs.Create(ctx, entry); err != nil {
						logger.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
					}
					cancel()
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(r.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (r *AuditRecorder) Enqueue(entry *model.OperationLog) {
	select {
	case r.ch <- entry:
	default:
		logger.Warn("audit queue full, drop entry", zap.String("action", entry.Action))
	}
}
