package domain

import (
	"fmt"
	"strings"
)

// Resolve returns a deep copy of the settings with every optional field set
// to its explicit default, so read sites never need fallback chains.
func (s *ShippingSettings) Resolve() *ShippingSettings {
	out := s.Clone()

	d := &out.PackageDefaults
	if d.Length <= 0 {
		d.Length = DefaultPackageLengthCm
	}
	if d.Width <= 0 {
		d.Width = DefaultPackageWidthCm
	}
	if d.Height <= 0 {
		d.Height = DefaultPackageHeightCm
	}
	if d.WeightPerItem <= 0 {
		d.WeightPerItem = DefaultWeightPerItemKg
	}
	if d.VolumetricDivisor <= 0 {
		d.VolumetricDivisor = DefaultVolumetricDivisor
	}

	if out.Currency == "" {
		out.Currency = DefaultCurrency
	}
	if out.CurrencyMinorUnits == nil {
		mu := DefaultCurrencyMinorUnit
		out.CurrencyMinorUnits = &mu
	}
	return out
}

// Clone returns a deep copy of the settings.
func (s *ShippingSettings) Clone() *ShippingSettings {
	out := *s

	out.Zones = make([]ShippingZone, len(s.Zones))
	for i, z := range s.Zones {
		z.Cities = append([]string(nil), z.Cities...)
		out.Zones[i] = z
	}

	out.Carriers = make([]ShippingCarrier, len(s.Carriers))
	for i, c := range s.Carriers {
		rates := make([]CarrierZoneRate, len(c.ZoneRates))
		for j, r := range c.ZoneRates {
			if r.FreeShippingThreshold != nil {
				v := *r.FreeShippingThreshold
				r.FreeShippingThreshold = &v
			}
			if r.MaxWeight != nil {
				v := *r.MaxWeight
				r.MaxWeight = &v
			}
			rates[j] = r
		}
		c.ZoneRates = rates
		out.Carriers[i] = c
	}

	if s.CurrencyMinorUnits != nil {
		mu := *s.CurrencyMinorUnits
		out.CurrencyMinorUnits = &mu
	}
	return &out
}

// Validate checks the aggregate invariants that must hold before settings are
// saved. Overlapping city lists are rejected here rather than left to the
// first-match rule of ResolveZone.
func (s *ShippingSettings) Validate() error {
	zoneIDs := make(map[string]bool, len(s.Zones))
	cityOwner := make(map[string]ShippingZone)
	fallback := ""

	for _, z := range s.Zones {
		if z.ID == "" {
			return fmt.Errorf("%w: zone %q has no id", ErrInvalidSettings, z.Name)
		}
		if strings.TrimSpace(z.Name) == "" {
			return fmt.Errorf("%w: zone %s has no name", ErrInvalidSettings, z.ID)
		}
		if zoneIDs[z.ID] {
			return fmt.Errorf("%w: duplicate zone id %s", ErrInvalidSettings, z.ID)
		}
		zoneIDs[z.ID] = true

		for _, c := range z.Cities {
			if strings.TrimSpace(c) == "" {
				return fmt.Errorf("%w: zone %q lists an empty city", ErrInvalidSettings, z.Name)
			}
		}
		if !z.IsActive {
			continue
		}
		if z.IsFallback() {
			if fallback != "" {
				return fmt.Errorf("%w: zones %q and %q are both catch-all zones", ErrInvalidSettings, fallback, z.Name)
			}
			fallback = z.Name
			continue
		}
		for _, c := range z.Cities {
			if owner, ok := cityOwner[c]; ok && owner.ID != z.ID {
				return fmt.Errorf("%w: city %q is listed in zones %q (%s) and %q (%s)", ErrInvalidSettings, c, owner.Name, owner.ID, z.Name, z.ID)
			}
			cityOwner[c] = z
		}
	}

	carrierIDs := make(map[string]bool, len(s.Carriers))
	codes := make(map[string]bool, len(s.Carriers))
	for _, c := range s.Carriers {
		if c.ID == "" {
			return fmt.Errorf("%w: carrier %q has no id", ErrInvalidSettings, c.Name)
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: carrier %s has no name", ErrInvalidSettings, c.ID)
		}
		if carrierIDs[c.ID] {
			return fmt.Errorf("%w: duplicate carrier id %s", ErrInvalidSettings, c.ID)
		}
		carrierIDs[c.ID] = true
		if c.Code != "" {
			if codes[c.Code] {
				return fmt.Errorf("%w: duplicate carrier code %q", ErrInvalidSettings, c.Code)
			}
			codes[c.Code] = true
		}
		if c.VolumetricFactor < 0 {
			return fmt.Errorf("%w: carrier %q has a negative volumetric factor", ErrInvalidSettings, c.Name)
		}

		seen := make(map[string]bool, len(c.ZoneRates))
		for _, r := range c.ZoneRates {
			if !zoneIDs[r.ZoneID] {
				return fmt.Errorf("%w: carrier %q has a rate for unknown zone %s", ErrInvalidSettings, c.Name, r.ZoneID)
			}
			if seen[r.ZoneID] {
				return fmt.Errorf("%w: carrier %q has two rates for zone %s", ErrInvalidSettings, c.Name, r.ZoneID)
			}
			seen[r.ZoneID] = true
			if err := r.validate(); err != nil {
				return fmt.Errorf("%w: carrier %q zone %s: %s", ErrInvalidSettings, c.Name, r.ZoneID, err)
			}
		}
	}

	if s.DefaultCarrierID != "" {
		c, err := s.Carrier(s.DefaultCarrierID)
		if err != nil {
			return fmt.Errorf("%w: default carrier %s does not exist", ErrInvalidSettings, s.DefaultCarrierID)
		}
		if !c.IsActive {
			return fmt.Errorf("%w: default carrier %q is inactive", ErrInvalidSettings, c.Name)
		}
	}

	d := s.PackageDefaults
	if d.Length < 0 || d.Width < 0 || d.Height < 0 || d.WeightPerItem < 0 || d.VolumetricDivisor < 0 {
		return fmt.Errorf("%w: package defaults must not be negative", ErrInvalidSettings)
	}
	if s.CurrencyMinorUnits != nil && (*s.CurrencyMinorUnits < 0 || *s.CurrencyMinorUnits > 4) {
		return fmt.Errorf("%w: currency minor units must be between 0 and 4", ErrInvalidSettings)
	}
	return nil
}

func (r CarrierZoneRate) validate() error {
	switch {
	case r.BaseCost < 0:
		return fmt.Errorf("base cost must not be negative")
	case r.CostPerKg < 0:
		return fmt.Errorf("cost per kg must not be negative")
	case r.EstimatedDays.Min < 0 || r.EstimatedDays.Max < r.EstimatedDays.Min:
		return fmt.Errorf("estimated days must satisfy 0 <= min <= max")
	case r.FreeShippingThreshold != nil && *r.FreeShippingThreshold < 0:
		return fmt.Errorf("free shipping threshold must not be negative")
	case r.MaxWeight != nil && *r.MaxWeight <= 0:
		return fmt.Errorf("max weight must be positive")
	}
	return nil
}

// NewRateStub is the placeholder rate created for a carrier/zone pair when
// either side is added. Admins are expected to price it afterwards.
func NewRateStub(zoneID string) CarrierZoneRate {
	return CarrierZoneRate{
		ZoneID:        zoneID,
		EstimatedDays: EstimatedDays{Min: 1, Max: 5},
	}
}

// AddZone appends a zone and gives every carrier a rate stub for it.
func (s *ShippingSettings) AddZone(zone ShippingZone) {
	s.Zones = append(s.Zones, zone)
	for i := range s.Carriers {
		c := &s.Carriers[i]
		if _, err := c.RateFor(zone.ID); err != nil {
			c.ZoneRates = append(c.ZoneRates, NewRateStub(zone.ID))
		}
	}
}

// ReplaceZone swaps a zone in place, keeping its position in list order.
func (s *ShippingSettings) ReplaceZone(zone ShippingZone) error {
	z, err := s.Zone(zone.ID)
	if err != nil {
		return err
	}
	*z = zone
	return nil
}

// RemoveZone deletes a zone and the matching rate on every carrier.
func (s *ShippingSettings) RemoveZone(id string) error {
	idx := -1
	for i := range s.Zones {
		if s.Zones[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	s.Zones = append(s.Zones[:idx], s.Zones[idx+1:]...)

	for i := range s.Carriers {
		c := &s.Carriers[i]
		kept := c.ZoneRates[:0]
		for _, r := range c.ZoneRates {
			if r.ZoneID != id {
				kept = append(kept, r)
			}
		}
		c.ZoneRates = kept
	}
	return nil
}

// AddCarrier appends a carrier, stubbing a rate for every zone it does not price.
func (s *ShippingSettings) AddCarrier(carrier ShippingCarrier) {
	for _, z := range s.Zones {
		if _, err := carrier.RateFor(z.ID); err != nil {
			carrier.ZoneRates = append(carrier.ZoneRates, NewRateStub(z.ID))
		}
	}
	s.Carriers = append(s.Carriers, carrier)
}

// ReplaceCarrier updates a carrier's own fields. Rates are kept unless the
// replacement carries its own list.
func (s *ShippingSettings) ReplaceCarrier(carrier ShippingCarrier) error {
	c, err := s.Carrier(carrier.ID)
	if err != nil {
		return err
	}
	if carrier.ZoneRates == nil {
		carrier.ZoneRates = c.ZoneRates
	}
	*c = carrier
	return nil
}

// RemoveCarrier deletes a carrier and clears it as default.
func (s *ShippingSettings) RemoveCarrier(id string) error {
	for i := range s.Carriers {
		if s.Carriers[i].ID == id {
			s.Carriers = append(s.Carriers[:i], s.Carriers[i+1:]...)
			if s.DefaultCarrierID == id {
				s.DefaultCarrierID = ""
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrCarrierNotFound, id)
}

// SetRate creates or replaces a carrier's rate for a zone.
func (s *ShippingSettings) SetRate(carrierID string, rate CarrierZoneRate) error {
	c, err := s.Carrier(carrierID)
	if err != nil {
		return err
	}
	for i := range c.ZoneRates {
		if c.ZoneRates[i].ZoneID == rate.ZoneID {
			c.ZoneRates[i] = rate
			return nil
		}
	}
	c.ZoneRates = append(c.ZoneRates, rate)
	return nil
}
