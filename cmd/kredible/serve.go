package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/kredible/internal/config"
	"github.com/jonathan/kredible/internal/db"
	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that exposes the recruiter, candidate and dashboard endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	store, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.StorageDriver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("[storage] Close failed: %v", err)
		}
	}()

	deps := server.Deps{
		Store: store,
		Email: email.NewService(email.NewSender(cfg), cfg),
	}
	if config.JWTEnabled() {
		jwtConfig, err := config.NewJWTConfig()
		if err != nil {
			return fmt.Errorf("failed to create JWT config: %w", err)
		}
		deps.JWT = jwtConfig
		if cfg.DashboardEmail == "" || cfg.DashboardPasswordHash == "" {
			log.Printf("[http] Warning: JWT_SECRET is set but DASHBOARD_EMAIL or DASHBOARD_PASSWORD_HASH is empty; nobody can log in")
		}
	} else {
		log.Printf("[http] JWT_SECRET not set; dashboard endpoints are open")
	}

	srv, err := server.New(cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Printf("[http] Storage: %s, candidate links: %s", cfg.StorageDriver, cfg.CandidateLink("<token>"))
	return srv.Start()
}
