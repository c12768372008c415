// Package main provides the kredible command: the HTTP API server plus operator tooling.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/kredible/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kredible",
	Short: "Kredible recruiter verification service",
	Long: "Kredible lets recruiters invite candidates to verify their professional profiles " +
		"through a one-time link, and collects the results for a recruiter dashboard.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file (env vars override it)")
}

// loadConfig resolves the effective configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
