// Command token mints operator bearer tokens for the admin API.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/signance/internal/http/middleware"
)

var (
	operator string
	ttl      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin API token",
	Long:  "Sign a bearer token for /api/admin with the JWT_SECRET the server uses.",
	RunE:  runMint,
}

func init() {
	rootCmd.Flags().StringVarP(&operator, "operator", "o", "", "name recorded in the token subject")
	rootCmd.Flags().DurationVar(&ttl, "ttl", 72*time.Hour, "token lifetime")
	_ = rootCmd.MarkFlagRequired("operator")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runMint(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	token, err := middleware.GenerateJWT(operator, secret, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
