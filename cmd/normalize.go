package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/pipeline"
)

var normalizeLimit int

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Migrate stored quote fields into routes, transport types and prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("normalize"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tbl, err := initKeywords()
		if err != nil {
			return err
		}
		ext, err := initExtractor(tbl)
		if err != nil {
			return err
		}

		report, err := pipeline.NewNormalizer(st, ext, normalizeLimit, zap.L()).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "normalize")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "normalize: %d total, %d priced, %d route only, %d without transport information, %d skipped\n",
			report.Seen, report.Priced, report.RouteOnly, report.NoData, report.Skipped)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().IntVar(&normalizeLimit, "limit", 0, "max messages to migrate, 0 for all")
	rootCmd.AddCommand(normalizeCmd)
}
