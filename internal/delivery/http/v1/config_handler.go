package v1

import (
	"context"
	"net/http"
	"time"

	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"

	"github.com/goccy/go-json"
)

type PublicConfigSource interface {
	PublicConfig(ctx context.Context) (*usecase.PublicConfig, error)
}

type ConfigHandler struct {
	cache  cache.CacheService
	gen    *cache.Generation
	source PublicConfigSource
	ttl    time.Duration
}

func NewConfigHandler(c cache.CacheService, source PublicConfigSource, ttl time.Duration) *ConfigHandler {
	return &ConfigHandler{
		cache:  c,
		gen:    cache.NewGeneration(c, usecase.SettingsGenerationKey),
		source: source,
		ttl:    ttl,
	}
}

func writeCachedJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// GET /api/v1/config/shipping
func (h *ConfigHandler) GetShippingConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := h.gen.Current(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn().Err(err).Msg("Shipping config cache generation unavailable")
	}
	key := h.gen.Key(token, usecase.PublicConfigCacheKey)
	if token != "" {
		if body, found, err := h.cache.Get(ctx, key); err == nil && found {
			writeCachedJSON(w, body)
			return
		}
	}

	cfg, err := h.source.PublicConfig(ctx)
	if err != nil {
		logger.WithContext(ctx).Error().Err(err).Msg("Failed to load shipping config")
		http.Error(w, "Failed to load shipping config", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(cfg)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	if token != "" {
		if err := h.cache.Set(ctx, key, body, h.ttl); err != nil {
			logger.WithContext(ctx).Warn().Err(err).Msg("Failed to cache shipping config")
		}
	}

	writeCachedJSON(w, body)
}
