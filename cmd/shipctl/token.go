package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/utils"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		email   string
		role    string
		ttl     time.Duration
		secret  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed access token for the settings API",
		Long: `Sign an HS256 access token with JWT_SECRET (or --secret). The API trusts
the role claim as issued, so only hand admin tokens to operators.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("no signing secret: set JWT_SECRET or pass --secret")
			}
			utils.SetSecret(secret)

			token, err := utils.GenerateJWT(subject, email, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&subject, "sub", "shipctl", "Subject (user id) claim")
	f.StringVar(&email, "email", "", "Email claim")
	f.StringVar(&role, "role", domain.RoleAdmin, "Role claim")
	f.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	f.StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	return cmd
}
