package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"investment-service/internal/config"
	"investment-service/internal/database"
	"investment-service/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database maintenance for the investment service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(database.Migrate)
	},
	SilenceUsage: true,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or refresh the default packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			if err := database.Migrate(db); err != nil {
				return err
			}
			created, updated, err := database.SeedPackages(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded packages: %d created, %d updated\n", created, updated)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func withDB(fn func(db *gorm.DB) error) error {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "migrate"})

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return fn(db)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
