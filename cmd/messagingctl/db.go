package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/LeventeLantos/direct-messaging/internal/repo"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

func openDB(ctx context.Context) (*sql.DB, error) {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		return nil, errors.New("missing required env var: POSTGRES_URL")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users and messages tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repo.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var u model.User

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u.Username = strings.TrimSpace(u.Username)
			if u.Username == "" {
				return errors.New("--username is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repo.NewPostgresUserRepo(db).CreateUser(ctx, u); err != nil {
				if errors.Is(err, repo.ErrUserExists) {
					return fmt.Errorf("user %q already exists", u.Username)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", u.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&u.Username, "username", "", "unique login name")
	cmd.Flags().StringVar(&u.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&u.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&u.Phone, "phone", "", "phone number")
	return cmd
}
