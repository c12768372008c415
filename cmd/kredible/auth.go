package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/kredible/internal/config"
	"github.com/jonathan/kredible/internal/server"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for DASHBOARD_PASSWORD_HASH",
	Long:  "Hashes the dashboard password with BCRYPT_COST and PASSWORD_PEPPER. Reads the first line of stdin when no argument is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHashPassword,
}

var tokenEmail string

var dashboardTokenCmd = &cobra.Command{
	Use:   "dashboard-token",
	Short: "Mint a dashboard bearer token without logging in",
	Long:  "Signs a dashboard token with JWT_SECRET for the given operator email (default DASHBOARD_EMAIL).",
	RunE:  runDashboardToken,
}

func init() {
	dashboardTokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Operator email to put in the token")
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(dashboardTokenCmd)
}

// argOrStdin returns args[0], or the first line of stdin.
func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := argOrStdin(cmd, args)
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is empty")
	}

	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}
	hash, err := passwords.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runDashboardToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	subject := strings.TrimSpace(tokenEmail)
	if subject == "" {
		subject = cfg.DashboardEmail
	}
	if subject == "" {
		return fmt.Errorf("--email or DASHBOARD_EMAIL is required")
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
