// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"slidesmith/internal/database"
	"slidesmith/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB) error {
			return database.Migrate(db)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied state of every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB) error {
			return database.MigrationStatus(db)
		})
	},
}

var (
	userName  string
	userLimit int
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage editor accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email> <password>",
	Short: "Create an editor account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB) error {
			u, err := store.NewUserStore(db).Create(context.Background(), args[0], args[1], userName, userLimit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.Email, u.ID)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)

	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().IntVar(&userLimit, "limit", 0, "stored carousel limit (0 for unlimited)")
	userCmd.AddCommand(userAddCmd)
}

// withDB loads the configuration, opens the database and runs fn.
func withDB(fn func(db *sql.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	return fn(db)
}
