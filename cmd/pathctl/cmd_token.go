package main

import (
	"fmt"
	"time"

	"pathways-server/internal/config"
	"pathways-server/pkg/authutils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Токены для локальной разработки; в проде их выдает внешний auth.
func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		player string
		name   string
		ttl    time.Duration
		secret string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a player token with the server's JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
			}
			id := uuid.New()
			if player != "" {
				var err error
				if id, err = uuid.Parse(player); err != nil {
					return fmt.Errorf("bad --player: %w", err)
				}
			}
			v, err := authutils.NewJWTVerifier(secret, opts.log)
			if err != nil {
				return err
			}
			token, err := v.Sign(id, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "player id (random when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT secret (read from config when empty)")
	return cmd
}
