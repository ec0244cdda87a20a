package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagKeyUser     string
	flagKeyUserName string
	flagKeyName     string
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		key, prefix, err := a.Store.CreateAPIKey(ctx, flagKeyUser, flagKeyUserName, flagKeyName)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Key ID: %s\n", prefix)
		fmt.Fprintf(out, "API key: %s\n", key)
		fmt.Fprintln(out, "Store it now; it cannot be shown again.")
		return nil
	},
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.RevokeAPIKey(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd)
	apikeyCmd.AddCommand(apikeyRevokeCmd)
	apikeyCreateCmd.Flags().StringVar(&flagKeyUser, "user", "", "User ID that owns the key")
	apikeyCreateCmd.Flags().StringVar(&flagKeyUserName, "name", "", "Display name shown as the podcast author")
	apikeyCreateCmd.Flags().StringVar(&flagKeyName, "key-name", "default", "Label for the key")
	_ = apikeyCreateCmd.MarkFlagRequired("user")
}
