package adaptor

import (
	"context"
	"net/http"
	"time"

	"studio-booking/pkg/database"
	"studio-booking/pkg/utils"

	"go.uber.org/zap"
)

// PoolChecker is the part of the pool the health endpoint needs.
type PoolChecker interface {
	HealthCheck(ctx context.Context) bool
	Stats() database.Stats
}

type HealthHandler struct {
	pool    PoolChecker
	log     *zap.Logger
	timeout time.Duration
}

func NewHealthHandler(pool PoolChecker, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		pool:    pool,
		log:     log.With(zap.String("handler", "health")),
		timeout: 5 * time.Second,
	}
}

type healthResponse struct {
	Database string         `json:"database"`
	Pool     database.Stats `json:"pool"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	healthy := h.pool.HealthCheck(ctx)
	resp := healthResponse{Database: "ok", Pool: h.pool.Stats()}

	if !healthy {
		resp.Database = "unhealthy"
		h.log.Warn("Health check failed", zap.Any("pool", resp.Pool))
		utils.ResponseUnavailable(w, "database unhealthy", resp)
		return
	}

	utils.ResponseSuccess(w, "OK", resp)
}
