package main

import (
	"fmt"
	"time"

	"storefront-backend/config"
	infracache "storefront-backend/internal/infrastructure/cache"
	pgrepo "storefront-backend/internal/repository/postgres"
	"storefront-backend/internal/usecase"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var seedFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load shipping settings from a YAML seed into an empty database",
		Long: `Create the shipping schema if needed and load zones, carriers and rates
from the seed file. Nothing is written when the database already has zones.

Connection settings come from the same environment as the API (DB_DSN, ...).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			seed, err := config.LoadShippingSeed(seedFile)
			if err != nil {
				return err
			}
			settings, err := seed.ToSettings(uuid.NewString)
			if err != nil {
				return err
			}

			cfg := config.LoadConfig()
			pool, err := pgrepo.NewPgxPool(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			if err := pgrepo.InitSchema(ctx, pool); err != nil {
				return err
			}

			settingsUC := usecase.NewShippingSettingsUsecase(
				pgrepo.NewShippingRepository(pool),
				pgrepo.NewTransactionManager(pool),
				infracache.NewMemoryCache(time.Minute, time.Minute),
				nil,
			)
			seeded, err := settingsUC.SeedIfEmpty(ctx, settings)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !seeded {
				fmt.Fprintln(out, "Shipping settings already present, nothing to do")
				return nil
			}
			fmt.Fprintf(out, "Seeded %d zones and %d carriers from %s\n", len(settings.Zones), len(settings.Carriers), seedFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&seedFile, "file", "f", "config/shipping_seed.yaml", "Seed file")
	return cmd
}
