package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/kredible/internal/config"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage secrets kept in the OS keychain",
}

var setSendGridKeyCmd = &cobra.Command{
	Use:   "set-sendgrid-key [key]",
	Short: "Store the SendGrid API key in the OS keychain",
	Long:  "Stores the key used when SENDGRID_API_KEY is unset. Reads the first line of stdin when no argument is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := argOrStdin(cmd, args)
		if err != nil {
			return err
		}
		if err := config.SetSendGridAPIKey(key); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "SendGrid API key stored in keychain")
		return nil
	},
}

var deleteSendGridKeyCmd = &cobra.Command{
	Use:   "delete-sendgrid-key",
	Short: "Remove the SendGrid API key from the OS keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.DeleteSendGridAPIKey(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "SendGrid API key removed from keychain")
		return nil
	},
}

func init() {
	secretsCmd.AddCommand(setSendGridKeyCmd, deleteSendGridKeyCmd)
	rootCmd.AddCommand(secretsCmd)
}
