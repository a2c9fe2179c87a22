package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"

	"github.com/google/uuid"
)

var ErrLogoStorageDisabled = errors.New("logo storage is not configured")

// LogoStorage stores carrier logos and returns their public URL.
type LogoStorage interface {
	UploadBuffer(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
}

// ShippingSettingsUsecase handles admin edits of the shipping settings.
// Every mutation is checked against the whole aggregate before it is saved.
type ShippingSettingsUsecase struct {
	repo      domain.ShippingRepository
	txManager domain.TransactionManager
	gen       *cache.Generation
	storage   LogoStorage
	newID     func() string
}

func NewShippingSettingsUsecase(repo domain.ShippingRepository, txManager domain.TransactionManager, c cache.CacheService, storage LogoStorage) *ShippingSettingsUsecase {
	return &ShippingSettingsUsecase{
		repo:      repo,
		txManager: txManager,
		gen:       cache.NewGeneration(c, SettingsGenerationKey),
		storage:   storage,
		newID:     uuid.NewString,
	}
}

type ZoneRequest struct {
	Name      *string  `json:"name"`
	Cities    []string `json:"cities"` // nil keeps the current list on update; [] makes a catch-all zone
	IsActive  *bool    `json:"isActive"`
	SortOrder *int     `json:"sortOrder"`
}

type CarrierRequest struct {
	Name             *string  `json:"name"`
	Code             *string  `json:"code"`
	VolumetricFactor *float64 `json:"volumetricFactor"`
	IsActive         *bool    `json:"isActive"`
}

type RateRequest struct {
	BaseCost              float64              `json:"baseCost"`
	CostPerKg             float64              `json:"costPerKg"`
	EstimatedDays         domain.EstimatedDays `json:"estimatedDays"`
	FreeShippingThreshold *float64             `json:"freeShippingThreshold"`
	MaxWeight             *float64             `json:"maxWeight"`
}

type GeneralRequest struct {
	DefaultCarrierID   *string                `json:"defaultCarrierId"`
	Currency           *string                `json:"currency"`
	CurrencyMinorUnits *int                   `json:"currencyMinorUnits"`
	Origin             *domain.ShippingOrigin `json:"origin"`
}

func (uc *ShippingSettingsUsecase) GetSettings(ctx context.Context) (*domain.ShippingSettings, error) {
	return uc.repo.GetSettings(ctx)
}

// mutate loads the current settings inside a transaction, lets fn stage its
// change on a copy, validates that copy and lets fn persist it.
func (uc *ShippingSettingsUsecase) mutate(ctx context.Context, fn func(next *domain.ShippingSettings) (func(ctx context.Context) error, error)) error {
	err := uc.txManager.Do(ctx, func(ctx context.Context) error {
		if err := uc.repo.LockSettings(ctx); err != nil {
			return err
		}
		current, err := uc.repo.GetSettings(ctx)
		if err != nil {
			return err
		}
		next := current.Clone()
		persist, err := fn(next)
		if err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		return persist(ctx)
	})
	if err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

// invalidate moves the settings cache to a new generation. Entries written
// under the old token, even after this call, are never read again.
func (uc *ShippingSettingsUsecase) invalidate(ctx context.Context) {
	if _, err := uc.gen.Bump(ctx); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Msg("Shipping cache invalidation failed")
	}
}

func normalizeCities(cities []string) []string {
	out := make([]string, 0, len(cities))
	seen := make(map[string]bool, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func (uc *ShippingSettingsUsecase) CreateZone(ctx context.Context, req ZoneRequest) (*domain.ShippingZone, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: zone name is required", domain.ErrInvalidSettings)
	}

	var created *domain.ShippingZone
	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		zone := domain.ShippingZone{
			ID:        uc.newID(),
			Name:      strings.TrimSpace(*req.Name),
			Cities:    normalizeCities(req.Cities),
			IsActive:  true,
			SortOrder: len(next.Zones),
		}
		if req.IsActive != nil {
			zone.IsActive = *req.IsActive
		}
		if req.SortOrder != nil {
			zone.SortOrder = *req.SortOrder
		}
		next.AddZone(zone)

		return func(ctx context.Context) error {
			var err error
			created, err = uc.repo.CreateZone(ctx, &zone)
			return err
		}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().Str("zone_id", created.ID).Str("name", created.Name).Msg("Shipping zone created")
	return created, nil
}

func (uc *ShippingSettingsUsecase) UpdateZone(ctx context.Context, id string, req ZoneRequest) (*domain.ShippingZone, error) {
	var updated *domain.ShippingZone
	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		current, err := next.Zone(id)
		if err != nil {
			return nil, err
		}
		zone := *current

		if req.Name != nil {
			zone.Name = strings.TrimSpace(*req.Name)
		}
		if req.Cities != nil {
			zone.Cities = normalizeCities(req.Cities)
		}
		if req.IsActive != nil {
			zone.IsActive = *req.IsActive
		}
		if req.SortOrder != nil {
			zone.SortOrder = *req.SortOrder
		}
		if err := next.ReplaceZone(zone); err != nil {
			return nil, err
		}

		return func(ctx context.Context) error {
			var err error
			updated, err = uc.repo.UpdateZone(ctx, &zone)
			return err
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteZone removes a zone together with every carrier rate for it.
func (uc *ShippingSettingsUsecase) DeleteZone(ctx context.Context, id string) error {
	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		if err := next.RemoveZone(id); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return uc.repo.DeleteZone(ctx, id)
		}, nil
	})
	if err != nil {
		return err
	}

	logger.WithContext(ctx).Info().Str("zone_id", id).Msg("Shipping zone deleted")
	return nil
}

func (uc *ShippingSettingsUsecase) CreateCarrier(ctx context.Context, req CarrierRequest) (*domain.ShippingCarrier, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: carrier name is required", domain.ErrInvalidSettings)
	}

	var created *domain.ShippingCarrier
	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		carrier := domain.ShippingCarrier{
			ID:       uc.newID(),
			Name:     strings.TrimSpace(*req.Name),
			IsActive: true,
		}
		if req.Code != nil {
			carrier.Code = utils.GenerateSlug(*req.Code)
		}
		if carrier.Code == "" {
			carrier.Code = utils.GenerateSlug(carrier.Name)
		}
		if req.VolumetricFactor != nil {
			carrier.VolumetricFactor = *req.VolumetricFactor
		}
		if req.IsActive != nil {
			carrier.IsActive = *req.IsActive
		}
		next.AddCarrier(carrier)
		staged, _ := next.Carrier(carrier.ID)

		return func(ctx context.Context) error {
			var err error
			created, err = uc.repo.CreateCarrier(ctx, staged)
			return err
		}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().Str("carrier_id", created.ID).Str("code", created.Code).Msg("Shipping carrier created")
	return created, nil
}

func (uc *ShippingSettingsUsecase) UpdateCarrier(ctx context.Context, id string, req CarrierRequest) (*domain.ShippingCarrier, error) {
	var updated *domain.ShippingCarrier
	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		current, err := next.Carrier(id)
		if err != nil {
			return nil, err
		}
		carrier := *current
		carrier.ZoneRates = nil

		if req.Name != nil {
			carrier.Name = strings.TrimSpace(*req.Name)
		}
		if req.Code != nil {
			carrier.Code = utils.GenerateSlug(*req.Code)
		}
		if req.VolumetricFactor != nil {
			carrier.VolumetricFactor = *req.VolumetricFactor
		}
		if req.IsActive != nil {
			carrier.IsActive = *req.IsActive
		}
		if err := next.ReplaceCarrier(carrier); err != nil {
			return nil, err
		}
		staged, _ := next.Carrier(id)

		return func(ctx context.Context) error {
			var err error
			updated, err = uc.repo.UpdateCarrier(ctx, &carrier)
			if err == nil {
				updated.ZoneRates = staged.ZoneRates
			}
			return err
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCarrier removes a carrier with its rates. If it was the default the
// shop is left without one until an admin picks another.
func (uc *ShippingSettingsUsecase) DeleteCarrier(ctx context.Context, id string) error {
	var logoURL string
	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		if c, err := next.Carrier(id); err == nil {
			logoURL = c.LogoURL
		}
		if err := next.RemoveCarrier(id); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return uc.repo.DeleteCarrier(ctx, id)
		}, nil
	})
	if err != nil {
		return err
	}

	uc.deleteLogo(ctx, logoURL)
	logger.WithContext(ctx).Info().Str("carrier_id", id).Msg("Shipping carrier deleted")
	return nil
}

// UpsertRate prices one carrier/zone pair.
func (uc *ShippingSettingsUsecase) UpsertRate(ctx context.Context, carrierID, zoneID string, req RateRequest) (*domain.CarrierZoneRate, error) {
	rate := domain.CarrierZoneRate{
		ZoneID:                zoneID,
		BaseCost:              req.BaseCost,
		CostPerKg:             req.CostPerKg,
		EstimatedDays:         req.EstimatedDays,
		FreeShippingThreshold: req.FreeShippingThreshold,
		MaxWeight:             req.MaxWeight,
	}

	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		if _, err := next.Zone(zoneID); err != nil {
			return nil, err
		}
		if err := next.SetRate(carrierID, rate); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return uc.repo.UpsertRate(ctx, carrierID, &rate)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (uc *ShippingSettingsUsecase) UpdatePackageDefaults(ctx context.Context, defaults domain.PackageDefaults) (*domain.PackageDefaults, error) {
	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		next.PackageDefaults = defaults
		return func(ctx context.Context) error {
			return uc.repo.UpdatePackageDefaults(ctx, &defaults)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &defaults, nil
}

// UpdateGeneral changes the default carrier, currency and origin address.
// Fields left nil keep their stored value.
func (uc *ShippingSettingsUsecase) UpdateGeneral(ctx context.Context, req GeneralRequest) (*domain.GeneralShippingSettings, error) {
	var general domain.GeneralShippingSettings
	err := uc.mutate(ctx, func(next *domain.ShippingSettings) (func(context.Context) error, error) {
		if req.DefaultCarrierID != nil {
			next.DefaultCarrierID = *req.DefaultCarrierID
		}
		if req.Currency != nil {
			next.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
		}
		if req.CurrencyMinorUnits != nil {
			mu := *req.CurrencyMinorUnits
			next.CurrencyMinorUnits = &mu
		}
		if req.Origin != nil {
			next.Origin = *req.Origin
		}

		general = domain.GeneralShippingSettings{
			DefaultCarrierID:   next.DefaultCarrierID,
			Origin:             next.Origin,
			Currency:           next.Currency,
			CurrencyMinorUnits: next.CurrencyMinorUnits,
		}
		return func(ctx context.Context) error {
			return uc.repo.UpdateGeneral(ctx, &general)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &general, nil
}

// UpdateCarrierLogo stores an already processed image and points the carrier at it.
// The previous logo is removed once the new one is saved.
func (uc *ShippingSettingsUsecase) UpdateCarrierLogo(ctx context.Context, carrierID string, data []byte, contentType string) (string, error) {
	if uc.storage == nil {
		return "", ErrLogoStorageDisabled
	}

	settings, err := uc.repo.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	carrier, err := settings.Carrier(carrierID)
	if err != nil {
		return "", err
	}
	previous := carrier.LogoURL

	url, err := uc.storage.UploadBuffer(ctx, "carriers/"+carrier.Code, data, contentType)
	if err != nil {
		return "", err
	}
	if err := uc.repo.UpdateCarrierLogo(ctx, carrierID, url); err != nil {
		uc.deleteLogo(ctx, url)
		return "", err
	}

	uc.invalidate(ctx)
	uc.deleteLogo(ctx, previous)
	return url, nil
}

func (uc *ShippingSettingsUsecase) deleteLogo(ctx context.Context, url string) {
	if url == "" || uc.storage == nil {
		return
	}
	if err := uc.storage.DeleteFile(ctx, url); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("url", url).Msg("Failed to delete carrier logo")
	}
}

// SeedIfEmpty writes seed into an empty store. It reports whether anything
// was written; a store that already has zones is left untouched.
func (uc *ShippingSettingsUsecase) SeedIfEmpty(ctx context.Context, seed *domain.ShippingSettings) (bool, error) {
	if err := seed.Validate(); err != nil {
		return false, err
	}

	seeded := false
	err := uc.txManager.Do(ctx, func(ctx context.Context) error {
		if err := uc.repo.LockSettings(ctx); err != nil {
			return err
		}
		n, err := uc.repo.CountZones(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		if err := uc.repo.UpdatePackageDefaults(ctx, &seed.PackageDefaults); err != nil {
			return err
		}
		for i := range seed.Zones {
			if _, err := uc.repo.CreateZone(ctx, &seed.Zones[i]); err != nil {
				return err
			}
		}
		for i := range seed.Carriers {
			if _, err := uc.repo.CreateCarrier(ctx, &seed.Carriers[i]); err != nil {
				return err
			}
		}
		err = uc.repo.UpdateGeneral(ctx, &domain.GeneralShippingSettings{
			DefaultCarrierID:   seed.DefaultCarrierID,
			Origin:             seed.Origin,
			Currency:           seed.Currency,
			CurrencyMinorUnits: seed.CurrencyMinorUnits,
		})
		if err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if seeded {
		uc.invalidate(ctx)
		logger.WithContext(ctx).Info().
			Int("zones", len(seed.Zones)).
			Int("carriers", len(seed.Carriers)).
			Msg("Shipping settings seeded")
	}
	return seeded, nil
}
