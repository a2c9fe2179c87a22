package config

import (
	"fmt"
	"os"

	"storefront-backend/internal/domain"

	"go.yaml.in/yaml/v4"
)

// ShippingSeed is the YAML document used to populate an empty database.
// Carriers reference zones by key; ids are assigned when the seed is converted.
type ShippingSeed struct {
	Currency           string        `yaml:"currency"`
	CurrencyMinorUnits *int          `yaml:"currency_minor_units"`
	DefaultCarrier     string        `yaml:"default_carrier"`
	PackageDefaults    SeedPackage   `yaml:"package_defaults"`
	Origin             SeedOrigin    `yaml:"origin"`
	Zones              []SeedZone    `yaml:"zones"`
	Carriers           []SeedCarrier `yaml:"carriers"`
}

type SeedPackage struct {
	Length            float64 `yaml:"length"`
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	WeightPerItem     float64 `yaml:"weight_per_item"`
	VolumetricDivisor float64 `yaml:"volumetric_divisor"`
}

type SeedOrigin struct {
	Name        string `yaml:"name"`
	Phone       string `yaml:"phone"`
	Email       string `yaml:"email"`
	AddressLine string `yaml:"address_line"`
	City        string `yaml:"city"`
	Department  string `yaml:"department"`
	PostalCode  string `yaml:"postal_code"`
	Country     string `yaml:"country"`
}

type SeedZone struct {
	Key      string   `yaml:"key"`
	Name     string   `yaml:"name"`
	Cities   []string `yaml:"cities"`
	Inactive bool     `yaml:"inactive"`
}

type SeedCarrier struct {
	Code             string     `yaml:"code"`
	Name             string     `yaml:"name"`
	VolumetricFactor float64    `yaml:"volumetric_factor"`
	Inactive         bool       `yaml:"inactive"`
	Rates            []SeedRate `yaml:"rates"`
}

type SeedRate struct {
	Zone                  string   `yaml:"zone"`
	BaseCost              float64  `yaml:"base_cost"`
	CostPerKg             float64  `yaml:"cost_per_kg"`
	MinDays               int      `yaml:"min_days"`
	MaxDays               int      `yaml:"max_days"`
	FreeShippingThreshold *float64 `yaml:"free_shipping_threshold"`
	MaxWeight             *float64 `yaml:"max_weight"`
}

func LoadShippingSeed(filename string) (*ShippingSeed, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping seed: %w", err)
	}
	return ParseShippingSeed(data)
}

func ParseShippingSeed(data []byte) (*ShippingSeed, error) {
	var seed ShippingSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping seed: %w", err)
	}
	return &seed, nil
}

// ToSettings converts the seed into a validated settings aggregate, using
// newID to mint zone and carrier ids.
func (s *ShippingSeed) ToSettings(newID func() string) (*domain.ShippingSettings, error) {
	settings := &domain.ShippingSettings{
		Currency:           s.Currency,
		CurrencyMinorUnits: s.CurrencyMinorUnits,
		PackageDefaults: domain.PackageDefaults{
			Length:            s.PackageDefaults.Length,
			Width:             s.PackageDefaults.Width,
			Height:            s.PackageDefaults.Height,
			WeightPerItem:     s.PackageDefaults.WeightPerItem,
			VolumetricDivisor: s.PackageDefaults.VolumetricDivisor,
		},
		Origin: domain.ShippingOrigin(s.Origin),
	}

	zoneIDs := make(map[string]string, len(s.Zones))
	for i, z := range s.Zones {
		if _, dup := zoneIDs[z.Key]; dup || z.Key == "" {
			return nil, fmt.Errorf("shipping seed: zone %q needs a unique key", z.Name)
		}
		id := newID()
		zoneIDs[z.Key] = id
		settings.AddZone(domain.ShippingZone{
			ID:        id,
			Name:      z.Name,
			Cities:    z.Cities,
			IsActive:  !z.Inactive,
			SortOrder: i,
		})
	}

	for _, c := range s.Carriers {
		carrier := domain.ShippingCarrier{
			ID:               newID(),
			Name:             c.Name,
			Code:             c.Code,
			VolumetricFactor: c.VolumetricFactor,
			IsActive:         !c.Inactive,
		}
		for _, r := range c.Rates {
			zoneID, ok := zoneIDs[r.Zone]
			if !ok {
				return nil, fmt.Errorf("shipping seed: carrier %q references unknown zone %q", c.Code, r.Zone)
			}
			carrier.ZoneRates = append(carrier.ZoneRates, domain.CarrierZoneRate{
				ZoneID:                zoneID,
				BaseCost:              r.BaseCost,
				CostPerKg:             r.CostPerKg,
				EstimatedDays:         domain.EstimatedDays{Min: r.MinDays, Max: r.MaxDays},
				FreeShippingThreshold: r.FreeShippingThreshold,
				MaxWeight:             r.MaxWeight,
			})
		}
		// Zones a seed carrier leaves out stay unpriced so they quote
		// RATE_NOT_CONFIGURED rather than a zero-cost stub.
		settings.Carriers = append(settings.Carriers, carrier)
		if c.Code == s.DefaultCarrier {
			settings.DefaultCarrierID = carrier.ID
		}
	}
	if s.DefaultCarrier != "" && settings.DefaultCarrierID == "" {
		return nil, fmt.Errorf("shipping seed: default carrier %q is not defined", s.DefaultCarrier)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("shipping seed: %w", err)
	}
	return settings, nil
}
