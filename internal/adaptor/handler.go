package adaptor

import (
	"go.uber.org/zap"
)

type Handler struct {
	Health *HealthHandler
}

func NewHandler(pool PoolChecker, log *zap.Logger) *Handler {
	return &Handler{
		Health: NewHealthHandler(pool, log),
	}
}
