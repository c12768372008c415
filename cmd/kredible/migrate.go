package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/kredible/internal/config"
	"github.com/jonathan/kredible/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the storage schema",
	Long:  "Applies the schema for the sqlite and postgres drivers. Opening the store migrates, so serve does this too.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StorageDriver == config.DriverMemory {
		fmt.Fprintln(cmd.OutOrStdout(), "memory storage has no schema; nothing to migrate")
		return nil
	}

	store, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := store.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.StorageDriver)
	return nil
}
