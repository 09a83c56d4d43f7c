package main

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/clinicbook/libs/config"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/migrations"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, err := config.RequiredString("DATABASE_URL")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: 2, MinConns: 1})
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := runMigrations(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", len(applied))
			return nil
		},
	}
}

func runMigrations(ctx context.Context, pool *db.Pool) ([]int, error) {
	applied, err := db.NewMigrator(pool, migrations.FS, migrations.Dir).Up(ctx)
	if err != nil {
		return applied, fmt.Errorf("migration failed: %w", err)
	}
	return applied, nil
}
