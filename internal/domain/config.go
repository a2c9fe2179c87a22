package domain

import (
	"context"
	"time"
)

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// ShippingZone groups destination cities that share shipping economics.
// A zone with no cities is the catch-all "rest of country" zone.
type ShippingZone struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Cities    []string  `json:"cities"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsFallback reports whether the zone catches cities not listed elsewhere.
func (z *ShippingZone) IsFallback() bool {
	return len(z.Cities) == 0
}

type EstimatedDays struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// CarrierZoneRate is the price a carrier charges for one zone.
// FreeShippingThreshold and MaxWeight are optional.
type CarrierZoneRate struct {
	ZoneID                string        `json:"zoneId"`
	BaseCost              float64       `json:"baseCost"`
	CostPerKg             float64       `json:"costPerKg"`
	EstimatedDays         EstimatedDays `json:"estimatedDays"`
	FreeShippingThreshold *float64      `json:"freeShippingThreshold,omitempty"`
	MaxWeight             *float64      `json:"maxWeight,omitempty"`
}

type ShippingCarrier struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Code             string            `json:"code"`
	VolumetricFactor float64           `json:"volumetricFactor"`
	ZoneRates        []CarrierZoneRate `json:"zoneRates"`
	IsActive         bool              `json:"isActive"`
	LogoURL          string            `json:"logoUrl,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// PackageDefaults are the shop-wide package assumptions used when an order
// does not carry its own dimensions. Lengths in cm, weights in kg.
type PackageDefaults struct {
	Length            float64 `json:"length"`
	Width             float64 `json:"width"`
	Height            float64 `json:"height"`
	WeightPerItem     float64 `json:"weightPerItem"`
	VolumetricDivisor float64 `json:"volumetricDivisor"`
}

// ShippingOrigin is the sender address printed on labels. It takes no part in pricing.
type ShippingOrigin struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	Department  string `json:"department"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
}

// ShippingSettings is the shop's shipping aggregate. It owns its zones and
// carriers; rates belong to carriers and reference zones by id.
type ShippingSettings struct {
	Zones              []ShippingZone    `json:"zones"`
	Carriers           []ShippingCarrier `json:"carriers"`
	DefaultCarrierID   string            `json:"defaultCarrierId"`
	PackageDefaults    PackageDefaults   `json:"packageDefaults"`
	Origin             ShippingOrigin    `json:"origin"`
	Currency           string            `json:"currency"`
	CurrencyMinorUnits *int              `json:"currencyMinorUnits,omitempty"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// GeneralShippingSettings holds the singleton fields of the aggregate.
type GeneralShippingSettings struct {
	DefaultCarrierID   string         `json:"defaultCarrierId"`
	Origin             ShippingOrigin `json:"origin"`
	Currency           string         `json:"currency"`
	CurrencyMinorUnits *int           `json:"currencyMinorUnits,omitempty"`
}

type ShippingRepository interface {
	GetSettings(ctx context.Context) (*ShippingSettings, error)

	// Zones
	CreateZone(ctx context.Context, zone *ShippingZone) (*ShippingZone, error)
	UpdateZone(ctx context.Context, zone *ShippingZone) (*ShippingZone, error)
	DeleteZone(ctx context.Context, id string) error

	// Carriers
	CreateCarrier(ctx context.Context, carrier *ShippingCarrier) (*ShippingCarrier, error)
	UpdateCarrier(ctx context.Context, carrier *ShippingCarrier) (*ShippingCarrier, error)
	UpdateCarrierLogo(ctx context.Context, id, logoURL string) error
	DeleteCarrier(ctx context.Context, id string) error

	// Rates
	UpsertRate(ctx context.Context, carrierID string, rate *CarrierZoneRate) error

	// Singleton settings
	UpdateGeneral(ctx context.Context, general *GeneralShippingSettings) error
	UpdatePackageDefaults(ctx context.Context, defaults *PackageDefaults) error
	CountZones(ctx context.Context) (int, error)

	// LockSettings takes a row lock on the singleton settings row for the
	// rest of the surrounding transaction. Writers call it first so that
	// their read-validate-write sequences run one at a time.
	LockSettings(ctx context.Context) error
}
