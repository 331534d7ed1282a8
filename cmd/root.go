package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoice-settlement/internal/config"
	"invoice-settlement/internal/logger"
)

var version = "1.0.0"

// cfg is resolved once in main before any command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "invoice-settlement",
	Short: "Invoice settlement service",
	Long: `Invoice settlement service for staff issuing invoices, recording
payments and producing receipts, with read-only analytics for the owner.

Configuration is read from the environment and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	},
}

func Execute(c config.Config) {
	cfg = c
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createOwnerCmd)
}
