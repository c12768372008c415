package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/observability"
	"github.com/jonathan/kredible/internal/validation"
)

var testEmailTo string

var testEmailCmd = &cobra.Command{
	Use:   "test-email",
	Short: "Send the fixed test message to check email delivery",
	Long: "Sends the same test message as POST /test-email. Without a SendGrid key the " +
		"message is only logged, which is enough to check templates render.",
	RunE: runTestEmail,
}

func init() {
	testEmailCmd.Flags().StringVar(&testEmailTo, "to", "", "Recipient address (required)")
	if err := testEmailCmd.MarkFlagRequired("to"); err != nil {
		panic(fmt.Sprintf("failed to mark to flag as required: %v", err))
	}
	rootCmd.AddCommand(testEmailCmd)
}

func runTestEmail(cmd *cobra.Command, _ []string) error {
	to := strings.TrimSpace(testEmailTo)
	if !validation.Email(to) {
		return fmt.Errorf("invalid recipient address: %q", testEmailTo)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := email.NewService(email.NewSender(cfg), cfg)
	receipt, err := svc.SendTestEmail(cmd.Context(), to)
	if err != nil {
		if status := email.ProviderStatus(err); status != 0 {
			return fmt.Errorf("test email rejected by provider (status %d): %w", status, err)
		}
		return fmt.Errorf("failed to send test email: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintEmailReceipt(to, receipt)
	return nil
}
