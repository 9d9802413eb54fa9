package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show message and price counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("status"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "messages:          %d\n", stats.Messages)
		fmt.Fprintf(out, "  processed:       %d\n", stats.Processed)
		fmt.Fprintf(out, "  migrated:        %d\n", stats.Migrated)
		fmt.Fprintf(out, "routes:            %d\n", stats.Routes)
		fmt.Fprintf(out, "transport types:   %d\n", stats.TransportTypes)
		fmt.Fprintf(out, "transport details: %d\n", stats.TransportDetails)
		fmt.Fprintf(out, "prices:            %d\n", stats.Prices)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
