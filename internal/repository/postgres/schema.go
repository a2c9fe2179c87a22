package pgrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates the shipping tables if they do not exist.
func InitSchema(ctx context.Context, db *pgxpool.Pool) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS shipping_zones (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  cities TEXT[] NOT NULL DEFAULT '{}',
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  sort_order INT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS shipping_carriers (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  code TEXT NOT NULL UNIQUE,
  volumetric_factor NUMERIC(10,2) NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  logo_url TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS carrier_zone_rates (
  carrier_id UUID NOT NULL REFERENCES shipping_carriers(id) ON DELETE CASCADE,
  zone_id UUID NOT NULL REFERENCES shipping_zones(id) ON DELETE CASCADE,
  base_cost NUMERIC(14,2) NOT NULL DEFAULT 0,
  cost_per_kg NUMERIC(14,2) NOT NULL DEFAULT 0,
  min_days INT NOT NULL DEFAULT 1,
  max_days INT NOT NULL DEFAULT 5,
  free_shipping_threshold NUMERIC(14,2) NULL,
  max_weight NUMERIC(10,3) NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (carrier_id, zone_id),
  CHECK (min_days >= 0 AND min_days <= max_days)
)`,
		`CREATE INDEX IF NOT EXISTS idx_carrier_zone_rates_zone_id ON carrier_zone_rates(zone_id)`,
		`
CREATE TABLE IF NOT EXISTS shipping_settings (
  id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
  default_carrier_id UUID NULL REFERENCES shipping_carriers(id) ON DELETE SET NULL,
  currency TEXT NOT NULL DEFAULT '',
  currency_minor_units INT NULL,
  package_length NUMERIC(10,2) NOT NULL DEFAULT 0,
  package_width NUMERIC(10,2) NOT NULL DEFAULT 0,
  package_height NUMERIC(10,2) NOT NULL DEFAULT 0,
  weight_per_item NUMERIC(10,3) NOT NULL DEFAULT 0,
  volumetric_divisor NUMERIC(10,2) NOT NULL DEFAULT 0,
  origin JSONB NOT NULL DEFAULT '{}',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`INSERT INTO shipping_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
	}

	for _, q := range stmts {
		if _, err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
