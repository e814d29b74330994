package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"linkbio/internal/services"
)

var subscriptionsCmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "Subscription maintenance",
}

var downgradeCmd = &cobra.Command{
	Use:   "downgrade",
	Short: "Expire subscriptions whose grace period has ended and downgrade their users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sweep services.SweepService
		var downgraded int

		err := runOnce(cmd.Context(), func(ctx context.Context) error {
			n, err := sweep.Sweep(ctx, time.Now())
			downgraded = n
			return err
		}, &sweep)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "downgraded %d subscription(s)\n", downgraded)
		return nil
	},
}

func init() {
	subscriptionsCmd.AddCommand(downgradeCmd)
	rootCmd.AddCommand(subscriptionsCmd)
}
