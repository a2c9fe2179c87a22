package domain

import (
	"fmt"
	"math"
)

// LineItem is one cart line as seen by the shipping quote.
type LineItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// PackageOverride replaces the shop package defaults for one quote.
// Dimensions apply only when all three are positive. WeightKg, when set,
// replaces the per-item weight estimate.
type PackageOverride struct {
	Length   float64  `json:"length"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	WeightKg *float64 `json:"weightKg,omitempty"`
}

func (p *PackageOverride) hasDimensions() bool {
	return p != nil && p.Length > 0 && p.Width > 0 && p.Height > 0
}

type QuoteRequest struct {
	City      string           `json:"city"`
	CarrierID string           `json:"carrierId,omitempty"`
	Items     []LineItem       `json:"items"`
	Package   *PackageOverride `json:"package,omitempty"`
	Subtotal  float64          `json:"subtotal"`
}

type WeightBreakdown struct {
	ActualKg     float64 `json:"actualKg"`
	VolumetricKg float64 `json:"volumetricKg"`
	BillableKg   float64 `json:"billableKg"`
	Divisor      float64 `json:"divisor"`
}

type ShippingCost struct {
	Cost          float64       `json:"cost"`
	EstimatedDays EstimatedDays `json:"estimatedDays"`
	FreeShipping  bool          `json:"freeShipping"`
}

type ShippingQuote struct {
	ZoneID        string          `json:"zoneId"`
	ZoneName      string          `json:"zoneName"`
	CarrierID     string          `json:"carrierId"`
	CarrierName   string          `json:"carrierName"`
	Cost          float64         `json:"cost"`
	Currency      string          `json:"currency"`
	EstimatedDays EstimatedDays   `json:"estimatedDays"`
	FreeShipping  bool            `json:"freeShipping"`
	Weight        WeightBreakdown `json:"weight"`
}

// CarrierQuoteOption is the outcome of quoting a single carrier: either a
// quote or the code of the error that prevented one.
type CarrierQuoteOption struct {
	CarrierID   string         `json:"carrierId"`
	CarrierName string         `json:"carrierName"`
	IsDefault   bool           `json:"isDefault"`
	Quote       *ShippingQuote `json:"quote,omitempty"`
	ErrorCode   string         `json:"errorCode,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// ResolveZone maps a destination city to an active zone. Matching is exact
// and case-sensitive; the first zone in list order wins. Cities listed
// nowhere resolve to the fallback zone.
func (s *ShippingSettings) ResolveZone(city string) (*ShippingZone, error) {
	var fallback *ShippingZone
	for i := range s.Zones {
		z := &s.Zones[i]
		if !z.IsActive {
			continue
		}
		if z.IsFallback() {
			if fallback == nil {
				fallback = z
			}
			continue
		}
		for _, c := range z.Cities {
			if c == city {
				return z, nil
			}
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoZoneConfigured, city)
}

func (s *ShippingSettings) Zone(id string) (*ShippingZone, error) {
	for i := range s.Zones {
		if s.Zones[i].ID == id {
			return &s.Zones[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrZoneNotFound, id)
}

// Carrier returns the carrier with the given id regardless of its status.
func (s *ShippingSettings) Carrier(id string) (*ShippingCarrier, error) {
	for i := range s.Carriers {
		if s.Carriers[i].ID == id {
			return &s.Carriers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCarrierNotFound, id)
}

// RateFor returns the carrier's rate for a zone.
func (c *ShippingCarrier) RateFor(zoneID string) (*CarrierZoneRate, error) {
	for i := range c.ZoneRates {
		if c.ZoneRates[i].ZoneID == zoneID {
			return &c.ZoneRates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: carrier %q zone %q", ErrRateNotConfigured, c.Code, zoneID)
}

// LookupRate finds the rate a carrier charges for a zone. An empty carrierID
// selects the shop's default carrier. There is no substitution: a default
// carrier without a rate for the zone is an error.
func (s *ShippingSettings) LookupRate(carrierID, zoneID string) (*ShippingCarrier, *CarrierZoneRate, error) {
	if carrierID == "" {
		carrierID = s.DefaultCarrierID
	}
	if carrierID == "" {
		return nil, nil, fmt.Errorf("%w: no carrier requested and no default carrier set", ErrCarrierNotFound)
	}

	carrier, err := s.Carrier(carrierID)
	if err != nil {
		return nil, nil, err
	}
	if !carrier.IsActive {
		return nil, nil, fmt.Errorf("%w: %q", ErrCarrierInactive, carrier.Code)
	}

	rate, err := carrier.RateFor(zoneID)
	if err != nil {
		return nil, nil, err
	}
	return carrier, rate, nil
}

// EstimateBillableWeight returns max(actual, volumetric) in kg.
// The carrier's volumetric factor is used when a carrier is given and has
// one; otherwise the shop divisor applies. An order with no items and no
// package override weighs nothing.
func EstimateBillableWeight(items []LineItem, override *PackageOverride, defaults PackageDefaults, carrier *ShippingCarrier) WeightBreakdown {
	divisor := defaults.VolumetricDivisor
	if carrier != nil && carrier.VolumetricFactor > 0 {
		divisor = carrier.VolumetricFactor
	}
	if divisor <= 0 {
		divisor = DefaultVolumetricDivisor
	}
	w := WeightBreakdown{Divisor: divisor}

	count := 0
	for _, it := range items {
		if it.Quantity > 0 {
			count += it.Quantity
		}
	}
	if count == 0 && override == nil {
		return w
	}

	if override != nil && override.WeightKg != nil {
		w.ActualKg = *override.WeightKg
	} else {
		w.ActualKg = defaults.WeightPerItem * float64(count)
	}

	length, width, height := defaults.Length, defaults.Width, defaults.Height
	if override.hasDimensions() {
		length, width, height = override.Length, override.Width, override.Height
	}
	w.VolumetricKg = length * width * height / divisor

	w.BillableKg = math.Max(w.ActualKg, w.VolumetricKg)
	return w
}

// CalculateShippingCost prices a shipment against a rate. The weight limit is
// checked first, so an overweight package fails even when it would ship free.
// The free-shipping threshold is inclusive.
func CalculateShippingCost(rate CarrierZoneRate, billableKg, subtotal float64) (ShippingCost, error) {
	if rate.MaxWeight != nil && billableKg > *rate.MaxWeight {
		return ShippingCost{}, fmt.Errorf("%w: %.3f kg > %.3f kg", ErrWeightExceedsLimit, billableKg, *rate.MaxWeight)
	}

	out := ShippingCost{EstimatedDays: rate.EstimatedDays}
	if rate.FreeShippingThreshold != nil && subtotal >= *rate.FreeShippingThreshold {
		out.FreeShipping = true
		return out, nil
	}
	out.Cost = rate.BaseCost + rate.CostPerKg*billableKg
	return out, nil
}

// RoundToMinorUnit rounds a currency amount half away from zero.
func RoundToMinorUnit(amount float64, minorUnits int) float64 {
	if minorUnits < 0 {
		minorUnits = 0
	}
	p := math.Pow10(minorUnits)
	return math.Round(amount*p) / p
}

// Quote resolves zone, carrier and rate for a request and prices it.
// The settings are expected to be resolved (see Resolve).
func (s *ShippingSettings) Quote(req QuoteRequest) (*ShippingQuote, error) {
	zone, err := s.ResolveZone(req.City)
	if err != nil {
		return nil, err
	}
	carrier, rate, err := s.LookupRate(req.CarrierID, zone.ID)
	if err != nil {
		return nil, err
	}

	weight := EstimateBillableWeight(req.Items, req.Package, s.PackageDefaults, carrier)
	cost, err := CalculateShippingCost(*rate, weight.BillableKg, req.Subtotal)
	if err != nil {
		return nil, err
	}

	return &ShippingQuote{
		ZoneID:        zone.ID,
		ZoneName:      zone.Name,
		CarrierID:     carrier.ID,
		CarrierName:   carrier.Name,
		Cost:          RoundToMinorUnit(cost.Cost, s.MinorUnits()),
		Currency:      s.Currency,
		EstimatedDays: cost.EstimatedDays,
		FreeShipping:  cost.FreeShipping,
		Weight:        weight,
	}, nil
}

// QuoteAll quotes every active carrier for the request so callers can offer
// alternatives. Zone resolution failures apply to all carriers and are
// returned as an error.
func (s *ShippingSettings) QuoteAll(req QuoteRequest) ([]CarrierQuoteOption, error) {
	if _, err := s.ResolveZone(req.City); err != nil {
		return nil, err
	}

	options := make([]CarrierQuoteOption, 0, len(s.Carriers))
	for _, c := range s.Carriers {
		if !c.IsActive {
			continue
		}
		opt := CarrierQuoteOption{
			CarrierID:   c.ID,
			CarrierName: c.Name,
			IsDefault:   c.ID == s.DefaultCarrierID,
		}
		r := req
		r.CarrierID = c.ID
		q, err := s.Quote(r)
		if err != nil {
			opt.ErrorCode = ShippingErrorCode(err)
			opt.Error = err.Error()
		} else {
			opt.Quote = q
		}
		options = append(options, opt)
	}
	return options, nil
}

// MinorUnits returns the number of decimal places of the shop currency.
func (s *ShippingSettings) MinorUnits() int {
	if s.CurrencyMinorUnits == nil {
		return DefaultCurrencyMinorUnit
	}
	return *s.CurrencyMinorUnits
}
