package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LeventeLantos/direct-messaging/internal/auth"
	"github.com/LeventeLantos/direct-messaging/internal/config"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		username string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		Long:  "Signs a token with JWT_SECRET that the API accepts as proof of the given username.",
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if username == "" {
				return errors.New("--username is required")
			}

			cfg, err := config.LoadAuth()
			if err != nil {
				return err
			}
			if ttl > 0 {
				cfg.TokenTTL = ttl
			}

			tokens, err := auth.NewTokens(auth.Config{
				Secret: cfg.JWTSecret,
				Issuer: cfg.Issuer,
				TTL:    cfg.TokenTTL,
			})
			if err != nil {
				return err
			}
			token, err := tokens.Issue(username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "user the token authenticates")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_TTL_SECONDS)")
	return cmd
}
