package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"linkbio/internal/services"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "User administration",
}

var grantAdminCmd = &cobra.Command{
	Use:   "grant-admin <email>",
	Short: "Give the user with this email the admin role",
	Long: `Give the user with this email the admin role.

The entitlement cache is cleared through the configured store. Without REDIS_URL
that store lives inside this process only, so a running server keeps showing the
previous account type until its cached entry expires (at most 5 minutes).
Set REDIS_URL on both the server and this command to make the change immediate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Redis.URL == "" {
			log.Warn("REDIS_URL not set, running servers may show the old account type for up to 5 minutes")
		}

		var accounts services.AccountServiceInterface

		err := runOnce(cmd.Context(), func(ctx context.Context) error {
			_, err := accounts.GrantAdmin(ctx, args[0])
			return err
		}, &accounts)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", args[0])
		return nil
	},
}

func init() {
	usersCmd.AddCommand(grantAdminCmd)
	rootCmd.AddCommand(usersCmd)
}
