// Package main provides the entry point for the portfolio admin CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "portfolio_admin",
	Short:         "Portfolio admin console",
	Long:          "portfolio_admin edits a personal portfolio through the portfolio API: sign in, edit the draft, and draft content updates from a resume with AI suggestions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
