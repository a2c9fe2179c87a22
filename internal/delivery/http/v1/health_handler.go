package v1

import (
	"context"
	"net/http"
	"time"

	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// GET /health, GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.WithContext(ctx).Error().Err(err).Msg("Health check: database unreachable")
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unreachable"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "connected"})
}
