package usecase

import (
	"context"
	"fmt"
	"time"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"

	"github.com/goccy/go-json"
)

const (
	SettingsCacheKey     = "shipping:settings"
	PublicConfigCacheKey = "shipping:config:public"

	// SettingsGenerationKey holds the token both cache keys above are
	// stored under. Settings writes bump it.
	SettingsGenerationKey = "shipping:settings:generation"
)

// ShippingUsecase answers quote requests against a cached settings snapshot.
type ShippingUsecase struct {
	repo     domain.ShippingRepository
	cache    cache.CacheService
	gen      *cache.Generation
	ttl      time.Duration
	maxItems int
}

func NewShippingUsecase(repo domain.ShippingRepository, c cache.CacheService, ttl time.Duration, maxItems int) *ShippingUsecase {
	return &ShippingUsecase{
		repo:     repo,
		cache:    c,
		gen:      cache.NewGeneration(c, SettingsGenerationKey),
		ttl:      ttl,
		maxItems: maxItems,
	}
}

// Snapshot returns the resolved settings. The stored form is cached under
// the current settings generation; every caller gets its own resolved copy.
func (uc *ShippingUsecase) Snapshot(ctx context.Context) (*domain.ShippingSettings, error) {
	// The token is read before the repository so that a load racing a
	// settings write is cached under the generation that write replaces.
	token, err := uc.gen.Current(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn().Err(err).Msg("Shipping settings cache generation unavailable")
	}
	key := uc.gen.Key(token, SettingsCacheKey)

	if token != "" {
		raw, found, err := uc.cache.Get(ctx, key)
		if err != nil {
			logger.WithContext(ctx).Warn().Err(err).Msg("Shipping settings cache read failed")
		}
		if found {
			var cached domain.ShippingSettings
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached.Resolve(), nil
			}
			logger.WithContext(ctx).Warn().Msg("Discarding undecodable shipping settings cache entry")
		}
	}

	settings, err := uc.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shipping settings: %w", err)
	}

	if token != "" {
		if raw, err := json.Marshal(settings); err == nil {
			if err := uc.cache.Set(ctx, key, raw, uc.ttl); err != nil {
				logger.WithContext(ctx).Warn().Err(err).Msg("Shipping settings cache write failed")
			}
		}
	}
	return settings.Resolve(), nil
}

func (uc *ShippingUsecase) validateRequest(req *domain.QuoteRequest) error {
	if uc.maxItems > 0 && len(req.Items) > uc.maxItems {
		return fmt.Errorf("%w: at most %d line items per quote", domain.ErrInvalidRequest, uc.maxItems)
	}
	for _, it := range req.Items {
		if it.Quantity < 0 {
			return fmt.Errorf("%w: negative quantity for product %s", domain.ErrInvalidRequest, it.ProductID)
		}
	}
	if req.Subtotal < 0 {
		return fmt.Errorf("%w: subtotal must not be negative", domain.ErrInvalidRequest)
	}
	if p := req.Package; p != nil {
		if p.Length < 0 || p.Width < 0 || p.Height < 0 || (p.WeightKg != nil && *p.WeightKg < 0) {
			return fmt.Errorf("%w: package values must not be negative", domain.ErrInvalidRequest)
		}
	}
	return nil
}

// Quote prices a request for one carrier, the default one when CarrierID is empty.
func (uc *ShippingUsecase) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.ShippingQuote, error) {
	if err := uc.validateRequest(&req); err != nil {
		return nil, err
	}
	settings, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := settings.Quote(req)
	if err != nil {
		logger.WithContext(ctx).Debug().
			Str("city", req.City).
			Str("carrier_id", req.CarrierID).
			Str("code", domain.ShippingErrorCode(err)).
			Msg("Shipping quote rejected")
		return nil, err
	}

	logger.WithContext(ctx).Debug().
		Str("zone", quote.ZoneName).
		Str("carrier", quote.CarrierName).
		Float64("billable_kg", quote.Weight.BillableKg).
		Float64("cost", quote.Cost).
		Bool("free", quote.FreeShipping).
		Msg("Shipping quote")
	return quote, nil
}

// Options prices the request against every active carrier.
func (uc *ShippingUsecase) Options(ctx context.Context, req domain.QuoteRequest) ([]domain.CarrierQuoteOption, error) {
	if err := uc.validateRequest(&req); err != nil {
		return nil, err
	}
	settings, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return settings.QuoteAll(req)
}

// PublicConfig is the storefront-facing view of the settings: active zones and
// carriers without origin details or inactive entries.
type PublicConfig struct {
	Currency           string                   `json:"currency"`
	CurrencyMinorUnits int                      `json:"currencyMinorUnits"`
	DefaultCarrierID   string                   `json:"defaultCarrierId"`
	Zones              []domain.ShippingZone    `json:"zones"`
	Carriers           []domain.ShippingCarrier `json:"carriers"`
}

func (uc *ShippingUsecase) PublicConfig(ctx context.Context) (*PublicConfig, error) {
	settings, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := &PublicConfig{
		Currency:           settings.Currency,
		CurrencyMinorUnits: settings.MinorUnits(),
		DefaultCarrierID:   settings.DefaultCarrierID,
		Zones:              []domain.ShippingZone{},
		Carriers:           []domain.ShippingCarrier{},
	}
	for _, z := range settings.Zones {
		if z.IsActive {
			out.Zones = append(out.Zones, z)
		}
	}
	for _, c := range settings.Carriers {
		if c.IsActive {
			out.Carriers = append(out.Carriers, c)
		}
	}
	return out, nil
}
