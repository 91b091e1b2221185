package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oilfield-ai/drillquery/internal/auth"
	"github.com/oilfield-ai/drillquery/internal/config"
	"github.com/oilfield-ai/drillquery/internal/model"
)

func newTokenCommand() *cobra.Command {
	var (
		caller model.Caller
		ttl    time.Duration
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed caller token for the HTTP transports",
		Long: `Mint an Ed25519-signed token carrying a role, user id and email.
Send it as "Authorization: Bearer <token>". The signing key comes from
DRILLQUERY_JWT_PRIVATE_KEY and DRILLQUERY_JWT_PUBLIC_KEY; without them the
key is ephemeral and the token is only useful for testing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			mgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
			if err != nil {
				return fmt.Errorf("token: %w", err)
			}
			token, expires, err := mgr.IssueToken(caller, ttl)
			if err != nil {
				return fmt.Errorf("token: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]any{
					"token":      token,
					"expires_at": expires.UTC().Format(time.RFC3339),
					"role":       caller.Role,
					"user_id":    caller.UserID,
				})
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}
	cmd.Flags().StringVar(&caller.Role, "role", "guest", "role carried by the token")
	cmd.Flags().StringVar(&caller.UserID, "user-id", "", "user id (token subject)")
	cmd.Flags().StringVar(&caller.Email, "email", "", "user email")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default DRILLQUERY_JWT_EXPIRATION, max 30 days)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print token and expiry as JSON")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
