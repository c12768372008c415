package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/kredible/internal/db"
	"github.com/jonathan/kredible/internal/observability"
	"github.com/jonathan/kredible/internal/schemas"
)

var (
	requestsToken       string
	requestsCheckMirror string
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Show stored recruiter requests",
	Long: "Lists the requests in the configured storage, or shows one request in full with --token. " +
		"With --check-mirror the given JSON mirror file is validated instead.",
	RunE: runRequests,
}

func init() {
	requestsCmd.Flags().StringVar(&requestsToken, "token", "", "Show the request holding this token")
	requestsCmd.Flags().StringVar(&requestsCheckMirror, "check-mirror", "", "Validate a JSON mirror file against the record schema")
	rootCmd.AddCommand(requestsCmd)
}

func runRequests(cmd *cobra.Command, _ []string) error {
	printer := observability.NewPrinter(cmd.OutOrStdout())

	if requestsCheckMirror != "" {
		err := schemas.ValidateFile(requestsCheckMirror)
		printer.PrintMirrorCheck(requestsCheckMirror, err)
		if err != nil {
			return fmt.Errorf("mirror file %s is invalid", requestsCheckMirror)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.StorageDriver, err)
	}
	defer func() { _ = store.Close() }()

	if requestsToken != "" {
		req, err := store.FindByToken(cmd.Context(), requestsToken)
		if err != nil {
			return fmt.Errorf("failed to look up token: %w", err)
		}
		if req == nil {
			return fmt.Errorf("no request holds that token")
		}
		printer.PrintRequest(req)
		return nil
	}

	all, err := store.ListAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}
	printer.PrintRequests(all)
	return nil
}
