// Command shipctl is the operator CLI for the shipping service: it seeds an
// empty database, prices carts offline against a seed file and mints admin
// tokens for the settings API.
package main

import (
	"fmt"
	"os"

	"storefront-backend/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shipctl",
		Short:         "Shipping settings operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; flags and the process environment still apply.
			_ = godotenv.Load()
			logger.Init("development", logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newSeedCmd(), newQuoteCmd(), newTokenCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
