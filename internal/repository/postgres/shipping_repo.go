package pgrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type shippingRepository struct {
	db *pgxpool.Pool
}

func NewShippingRepository(db *pgxpool.Pool) domain.ShippingRepository {
	return &shippingRepository{db: db}
}

const zoneColumns = `id::text, name, cities, is_active, sort_order, created_at, updated_at`

const carrierColumns = `id::text, name, code, volumetric_factor, is_active, logo_url, created_at, updated_at`

func scanZone(row pgx.Row) (*domain.ShippingZone, error) {
	var z domain.ShippingZone
	if err := row.Scan(&z.ID, &z.Name, &z.Cities, &z.IsActive, &z.SortOrder, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	if z.Cities == nil {
		z.Cities = []string{}
	}
	return &z, nil
}

func scanCarrier(row pgx.Row) (*domain.ShippingCarrier, error) {
	var (
		c      domain.ShippingCarrier
		factor pgtype.Numeric
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Code, &factor, &c.IsActive, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.VolumetricFactor = numericToFloat64(factor)
	c.ZoneRates = []domain.CarrierZoneRate{}
	return &c, nil
}

func (r *shippingRepository) GetSettings(ctx context.Context) (*domain.ShippingSettings, error) {
	q := querier(ctx, r.db)
	settings := &domain.ShippingSettings{}

	var (
		defaultCarrier *string
		minorUnits     pgtype.Int4
		length, width  pgtype.Numeric
		height, weight pgtype.Numeric
		divisor        pgtype.Numeric
		origin         []byte
	)
	err := q.QueryRow(ctx, `
SELECT default_carrier_id::text, currency, currency_minor_units,
       package_length, package_width, package_height, weight_per_item, volumetric_divisor,
       origin, updated_at
FROM shipping_settings WHERE id = 1`).Scan(
		&defaultCarrier, &settings.Currency, &minorUnits,
		&length, &width, &height, &weight, &divisor,
		&origin, &settings.UpdatedAt,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get shipping settings: %w", err)
	}
	if defaultCarrier != nil {
		settings.DefaultCarrierID = *defaultCarrier
	}
	settings.CurrencyMinorUnits = int4ToIntPtr(minorUnits)
	settings.PackageDefaults = domain.PackageDefaults{
		Length:            numericToFloat64(length),
		Width:             numericToFloat64(width),
		Height:            numericToFloat64(height),
		WeightPerItem:     numericToFloat64(weight),
		VolumetricDivisor: numericToFloat64(divisor),
	}
	if len(origin) > 0 {
		if err := json.Unmarshal(origin, &settings.Origin); err != nil {
			return nil, fmt.Errorf("decode shipping origin: %w", err)
		}
	}

	zoneRows, err := q.Query(ctx, `SELECT `+zoneColumns+` FROM shipping_zones ORDER BY sort_order, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list shipping zones: %w", err)
	}
	defer zoneRows.Close()
	for zoneRows.Next() {
		z, err := scanZone(zoneRows)
		if err != nil {
			return nil, fmt.Errorf("scan shipping zone: %w", err)
		}
		settings.Zones = append(settings.Zones, *z)
	}
	if err := zoneRows.Err(); err != nil {
		return nil, fmt.Errorf("list shipping zones: %w", err)
	}

	carrierRows, err := q.Query(ctx, `SELECT `+carrierColumns+` FROM shipping_carriers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list shipping carriers: %w", err)
	}
	defer carrierRows.Close()
	index := make(map[string]int)
	for carrierRows.Next() {
		c, err := scanCarrier(carrierRows)
		if err != nil {
			return nil, fmt.Errorf("scan shipping carrier: %w", err)
		}
		index[c.ID] = len(settings.Carriers)
		settings.Carriers = append(settings.Carriers, *c)
	}
	if err := carrierRows.Err(); err != nil {
		return nil, fmt.Errorf("list shipping carriers: %w", err)
	}

	rateRows, err := q.Query(ctx, `
SELECT r.carrier_id::text, r.zone_id::text, r.base_cost, r.cost_per_kg, r.min_days, r.max_days,
       r.free_shipping_threshold, r.max_weight
FROM carrier_zone_rates r
JOIN shipping_zones z ON z.id = r.zone_id
ORDER BY z.sort_order, z.created_at, z.id`)
	if err != nil {
		return nil, fmt.Errorf("list carrier rates: %w", err)
	}
	defer rateRows.Close()
	for rateRows.Next() {
		var (
			carrierID            string
			rate                 domain.CarrierZoneRate
			base, perKg          pgtype.Numeric
			threshold, maxWeight pgtype.Numeric
		)
		if err := rateRows.Scan(&carrierID, &rate.ZoneID, &base, &perKg,
			&rate.EstimatedDays.Min, &rate.EstimatedDays.Max, &threshold, &maxWeight); err != nil {
			return nil, fmt.Errorf("scan carrier rate: %w", err)
		}
		rate.BaseCost = numericToFloat64(base)
		rate.CostPerKg = numericToFloat64(perKg)
		rate.FreeShippingThreshold = numericToFloat64Ptr(threshold)
		rate.MaxWeight = numericToFloat64Ptr(maxWeight)

		if i, ok := index[carrierID]; ok {
			settings.Carriers[i].ZoneRates = append(settings.Carriers[i].ZoneRates, rate)
		}
	}
	if err := rateRows.Err(); err != nil {
		return nil, fmt.Errorf("list carrier rates: %w", err)
	}

	return settings, nil
}

// CreateZone inserts the zone and a rate stub for every existing carrier.
func (r *shippingRepository) CreateZone(ctx context.Context, zone *domain.ShippingZone) (*domain.ShippingZone, error) {
	q := querier(ctx, r.db)

	created, err := scanZone(q.QueryRow(ctx, `
INSERT INTO shipping_zones (id, name, cities, is_active, sort_order)
VALUES ($1::uuid, $2, $3, $4, $5)
RETURNING `+zoneColumns,
		zone.ID, zone.Name, citiesParam(zone.Cities), zone.IsActive, zone.SortOrder))
	if err != nil {
		return nil, fmt.Errorf("create shipping zone: %w", err)
	}

	stub := domain.NewRateStub(created.ID)
	_, err = q.Exec(ctx, `
INSERT INTO carrier_zone_rates (carrier_id, zone_id, base_cost, cost_per_kg, min_days, max_days)
SELECT id, $1::uuid, $2, $3, $4, $5 FROM shipping_carriers
ON CONFLICT (carrier_id, zone_id) DO NOTHING`,
		created.ID, float64ToNumeric(stub.BaseCost), float64ToNumeric(stub.CostPerKg),
		stub.EstimatedDays.Min, stub.EstimatedDays.Max)
	if err != nil {
		return nil, fmt.Errorf("stub rates for zone %s: %w", created.ID, err)
	}

	return created, nil
}

func (r *shippingRepository) UpdateZone(ctx context.Context, zone *domain.ShippingZone) (*domain.ShippingZone, error) {
	updated, err := scanZone(querier(ctx, r.db).QueryRow(ctx, `
UPDATE shipping_zones
SET name = $2, cities = $3, is_active = $4, sort_order = $5, updated_at = now()
WHERE id = $1::uuid
RETURNING `+zoneColumns,
		zone.ID, zone.Name, citiesParam(zone.Cities), zone.IsActive, zone.SortOrder))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zone.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update shipping zone: %w", err)
	}
	return updated, nil
}

// DeleteZone removes the zone; carrier rates go with it via ON DELETE CASCADE.
func (r *shippingRepository) DeleteZone(ctx context.Context, id string) error {
	tag, err := querier(ctx, r.db).Exec(ctx, `DELETE FROM shipping_zones WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete shipping zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, id)
	}
	return nil
}

// CreateCarrier inserts the carrier together with the rates it carries.
func (r *shippingRepository) CreateCarrier(ctx context.Context, carrier *domain.ShippingCarrier) (*domain.ShippingCarrier, error) {
	q := querier(ctx, r.db)

	created, err := scanCarrier(q.QueryRow(ctx, `
INSERT INTO shipping_carriers (id, name, code, volumetric_factor, is_active, logo_url)
VALUES ($1::uuid, $2, $3, $4, $5, $6)
RETURNING `+carrierColumns,
		carrier.ID, carrier.Name, carrier.Code, float64ToNumeric(carrier.VolumetricFactor), carrier.IsActive, carrier.LogoURL))
	if err != nil {
		return nil, fmt.Errorf("create shipping carrier: %w", err)
	}

	for i := range carrier.ZoneRates {
		rate := carrier.ZoneRates[i]
		if err := upsertRate(ctx, q, created.ID, &rate); err != nil {
			return nil, err
		}
		created.ZoneRates = append(created.ZoneRates, rate)
	}
	return created, nil
}

func (r *shippingRepository) UpdateCarrier(ctx context.Context, carrier *domain.ShippingCarrier) (*domain.ShippingCarrier, error) {
	updated, err := scanCarrier(querier(ctx, r.db).QueryRow(ctx, `
UPDATE shipping_carriers
SET name = $2, code = $3, volumetric_factor = $4, is_active = $5, updated_at = now()
WHERE id = $1::uuid
RETURNING `+carrierColumns,
		carrier.ID, carrier.Name, carrier.Code, float64ToNumeric(carrier.VolumetricFactor), carrier.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", domain.ErrCarrierNotFound, carrier.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update shipping carrier: %w", err)
	}
	return updated, nil
}

func (r *shippingRepository) UpdateCarrierLogo(ctx context.Context, id, logoURL string) error {
	tag, err := querier(ctx, r.db).Exec(ctx,
		`UPDATE shipping_carriers SET logo_url = $2, updated_at = now() WHERE id = $1::uuid`, id, logoURL)
	if err != nil {
		return fmt.Errorf("update carrier logo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", domain.ErrCarrierNotFound, id)
	}
	return nil
}

// DeleteCarrier removes the carrier and its rates. A default carrier reference
// is cleared by ON DELETE SET NULL.
func (r *shippingRepository) DeleteCarrier(ctx context.Context, id string) error {
	tag, err := querier(ctx, r.db).Exec(ctx, `DELETE FROM shipping_carriers WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete shipping carrier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", domain.ErrCarrierNotFound, id)
	}
	return nil
}

func (r *shippingRepository) UpsertRate(ctx context.Context, carrierID string, rate *domain.CarrierZoneRate) error {
	return upsertRate(ctx, querier(ctx, r.db), carrierID, rate)
}

func upsertRate(ctx context.Context, q dbtx, carrierID string, rate *domain.CarrierZoneRate) error {
	_, err := q.Exec(ctx, `
INSERT INTO carrier_zone_rates
  (carrier_id, zone_id, base_cost, cost_per_kg, min_days, max_days, free_shipping_threshold, max_weight)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8)
ON CONFLICT (carrier_id, zone_id) DO UPDATE SET
  base_cost = EXCLUDED.base_cost,
  cost_per_kg = EXCLUDED.cost_per_kg,
  min_days = EXCLUDED.min_days,
  max_days = EXCLUDED.max_days,
  free_shipping_threshold = EXCLUDED.free_shipping_threshold,
  max_weight = EXCLUDED.max_weight,
  updated_at = now()`,
		carrierID, rate.ZoneID,
		float64ToNumeric(rate.BaseCost), float64ToNumeric(rate.CostPerKg),
		rate.EstimatedDays.Min, rate.EstimatedDays.Max,
		float64PtrToNumeric(rate.FreeShippingThreshold), float64PtrToNumeric(rate.MaxWeight))
	if err != nil {
		return fmt.Errorf("upsert rate carrier %s zone %s: %w", carrierID, rate.ZoneID, err)
	}
	return nil
}

func (r *shippingRepository) UpdateGeneral(ctx context.Context, general *domain.GeneralShippingSettings) error {
	origin, err := json.Marshal(general.Origin)
	if err != nil {
		return fmt.Errorf("encode shipping origin: %w", err)
	}
	_, err = querier(ctx, r.db).Exec(ctx, `
UPDATE shipping_settings
SET default_carrier_id = $1::uuid, currency = $2, currency_minor_units = $3, origin = $4, updated_at = now()
WHERE id = 1`,
		nullableUUID(general.DefaultCarrierID), general.Currency, intPtrToInt4(general.CurrencyMinorUnits), origin)
	if err != nil {
		return fmt.Errorf("update shipping settings: %w", err)
	}
	return nil
}

func (r *shippingRepository) UpdatePackageDefaults(ctx context.Context, d *domain.PackageDefaults) error {
	_, err := querier(ctx, r.db).Exec(ctx, `
UPDATE shipping_settings
SET package_length = $1, package_width = $2, package_height = $3,
    weight_per_item = $4, volumetric_divisor = $5, updated_at = now()
WHERE id = 1`,
		float64ToNumeric(d.Length), float64ToNumeric(d.Width), float64ToNumeric(d.Height),
		float64ToNumeric(d.WeightPerItem), float64ToNumeric(d.VolumetricDivisor))
	if err != nil {
		return fmt.Errorf("update package defaults: %w", err)
	}
	return nil
}

func (r *shippingRepository) CountZones(ctx context.Context) (int, error) {
	var n int
	if err := querier(ctx, r.db).QueryRow(ctx, `SELECT count(*) FROM shipping_zones`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count shipping zones: %w", err)
	}
	return n, nil
}

func (r *shippingRepository) LockSettings(ctx context.Context) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return errors.New("lock shipping settings: no transaction in context")
	}
	tag, err := tx.Exec(ctx, `SELECT 1 FROM shipping_settings WHERE id = 1 FOR UPDATE`)
	if err != nil {
		return fmt.Errorf("lock shipping settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New("lock shipping settings: settings row is missing")
	}
	return nil
}
