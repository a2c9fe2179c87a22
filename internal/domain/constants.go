package domain

import "errors"

// Package defaults applied when the stored settings leave them unset.
const (
	DefaultVolumetricDivisor = 5000.0
	DefaultWeightPerItemKg   = 0.25
	DefaultPackageLengthCm   = 30.0
	DefaultPackageWidthCm    = 25.0
	DefaultPackageHeightCm   = 5.0
	DefaultCurrency          = "COP"
	DefaultCurrencyMinorUnit = 2
)

// Common volumetric factors.
const (
	VolumetricFactorAir    = 5000.0
	VolumetricFactorGround = 6000.0
)

var (
	ErrNoZoneConfigured   = errors.New("no shipping zone configured for destination")
	ErrCarrierNotFound    = errors.New("shipping carrier not found")
	ErrCarrierInactive    = errors.New("shipping carrier is inactive")
	ErrRateNotConfigured  = errors.New("carrier has no rate for zone")
	ErrWeightExceedsLimit = errors.New("billable weight exceeds carrier limit")
	ErrInvalidSettings    = errors.New("invalid shipping settings")
	ErrZoneNotFound       = errors.New("shipping zone not found")
	ErrInvalidRequest     = errors.New("invalid shipping request")
)

// Error codes exposed to API clients.
const (
	CodeNoZoneConfigured   = "NO_ZONE_CONFIGURED"
	CodeCarrierNotFound    = "CARRIER_NOT_FOUND"
	CodeCarrierInactive    = "CARRIER_INACTIVE"
	CodeRateNotConfigured  = "RATE_NOT_CONFIGURED"
	CodeWeightExceedsLimit = "WEIGHT_EXCEEDS_LIMIT"
	CodeInvalidSettings    = "INVALID_SETTINGS"
	CodeZoneNotFound       = "ZONE_NOT_FOUND"
	CodeInvalidRequest     = "INVALID_REQUEST"
)

// ShippingErrorCode maps a shipping error to its API code, or "" if it is not one.
func ShippingErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoZoneConfigured):
		return CodeNoZoneConfigured
	case errors.Is(err, ErrCarrierNotFound):
		return CodeCarrierNotFound
	case errors.Is(err, ErrCarrierInactive):
		return CodeCarrierInactive
	case errors.Is(err, ErrRateNotConfigured):
		return CodeRateNotConfigured
	case errors.Is(err, ErrWeightExceedsLimit):
		return CodeWeightExceedsLimit
	case errors.Is(err, ErrInvalidSettings):
		return CodeInvalidSettings
	case errors.Is(err, ErrZoneNotFound):
		return CodeZoneNotFound
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	}
	return ""
}
