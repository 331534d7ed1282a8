package cmd

import (
	"github.com/spf13/cobra"

	"invoice-settlement/internal/logger"
	"invoice-settlement/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg)
		if err != nil {
			return err
		}
		if err := store.Migrate(db); err != nil {
			return err
		}
		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			if err := store.SeedDev(db); err != nil {
				return err
			}
		}
		log := logger.WithComponent("migrate")
		log.Info().Str("driver", cfg.DBDriver).Msg("schema up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("seed", false, "also load development data")
}
