package main

import (
	"fmt"
	"io"

	"storefront-backend/config"
	"storefront-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type quoteOptions struct {
	seedFile string
	city     string
	carrier  string
	items    int
	subtotal float64
	weightKg float64
	all      bool
}

func newQuoteCmd() *cobra.Command {
	var opts quoteOptions

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a cart against a seed file without a database",
		Example: `  shipctl quote --city Bogota --items 3 --subtotal 90000
  shipctl quote --city Pasto --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.seedFile, "file", "f", "config/shipping_seed.yaml", "Seed file")
	f.StringVar(&opts.city, "city", "", "Destination city (exact match)")
	f.StringVar(&opts.carrier, "carrier", "", "Carrier code (default carrier when empty)")
	f.IntVar(&opts.items, "items", 1, "Number of units in the cart")
	f.Float64Var(&opts.subtotal, "subtotal", 0, "Cart subtotal")
	f.Float64Var(&opts.weightKg, "weight", 0, "Actual package weight in kg, replaces the per-item estimate")
	f.BoolVar(&opts.all, "all", false, "Quote every active carrier")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func runQuote(out io.Writer, opts quoteOptions) error {
	seed, err := config.LoadShippingSeed(opts.seedFile)
	if err != nil {
		return err
	}
	settings, err := seed.ToSettings(uuid.NewString)
	if err != nil {
		return err
	}
	settings = settings.Resolve()

	req := domain.QuoteRequest{
		City:     opts.city,
		Items:    []domain.LineItem{{ProductID: "cli", Quantity: opts.items}},
		Subtotal: opts.subtotal,
	}
	if opts.weightKg > 0 {
		w := opts.weightKg
		req.Package = &domain.PackageOverride{WeightKg: &w}
	}
	if opts.carrier != "" {
		id, err := carrierIDByCode(settings, opts.carrier)
		if err != nil {
			return err
		}
		req.CarrierID = id
	}

	var result interface{}
	if opts.all {
		result, err = settings.QuoteAll(req)
	} else {
		result, err = settings.Quote(req)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", domain.ShippingErrorCode(err), err)
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(body))
	return err
}

// Seed ids are minted per run, so operators name carriers by code.
func carrierIDByCode(settings *domain.ShippingSettings, code string) (string, error) {
	for _, c := range settings.Carriers {
		if c.Code == code {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrCarrierNotFound, code)
}
