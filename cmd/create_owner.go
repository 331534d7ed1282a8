package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoice-settlement/internal/accounts"
	"invoice-settlement/internal/store"
)

var createOwnerCmd = &cobra.Command{
	Use:     "create-owner",
	Short:   "Create the owner account if it does not exist",
	Example: `  invoice-settlement create-owner --name "Ama Owusu" --email owner@example.com --password 's3cret-pass'`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		db, err := store.Open(cfg)
		if err != nil {
			return err
		}
		if err := store.Migrate(db); err != nil {
			return err
		}
		svc := accounts.NewService(store.NewGorm(db), cfg.TokenConfig())
		u, created, err := svc.EnsureOwner(cmd.Context(), accounts.AdminInput{Name: name, Email: email, Password: password})
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(cmd.OutOrStdout(), "account %s already exists (id %d, role %s)\n", u.Email, u.ID, u.Role)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "owner %s created (id %d)\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	createOwnerCmd.Flags().String("name", "Owner", "display name")
	createOwnerCmd.Flags().String("email", "", "login email")
	createOwnerCmd.Flags().String("password", "", "login password, at least 8 characters")
	_ = createOwnerCmd.MarkFlagRequired("email")
	_ = createOwnerCmd.MarkFlagRequired("password")
}
