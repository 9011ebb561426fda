package handler

import (
	"github.com/d60-Lab/reward-hub/internal/service"
)

// Handler 聚合 HTTP 层依赖。
type Handler struct {
	participation *service.ParticipationService
	callback      *service.CallbackService
	sync          *service.SyncService
	taskCache     *service.TaskCache
}

func New(participation *service.ParticipationService, callback *service.CallbackService,
	sync *service.SyncService, taskCache *service.TaskCache) *Handler {
	return &Handler{
		participation: participation,
		callback:      callback,
		sync:          sync,
		taskCache:     taskCache,
	}
}
