// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldrift/worldrift/internal/store"
)

// NewMigrateCmd creates the migrate subcommand with its up, down, and
// version actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back, or inspect database schema migrations.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			cmd.Println("Running migrations...")
			if err := migrateUp(url); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (destructive)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			m, err := store.NewMigrator(url)
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // best effort on shutdown
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Rollback completed")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			m, err := store.NewMigrator(url)
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // best effort on shutdown
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("version: %d dirty: %v\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func databaseURL() (string, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	return url, nil
}

func migrateUp(databaseURL string) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck // best effort on shutdown
	return m.Up()
}
