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

var (
	ingestSource   string
	ingestLimit    int
	ingestNoRescan bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch new mail, extract quote fields and store the messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if ingestSource != "" {
			cfg.Ingest.Source = ingestSource
		}
		if cmd.Flags().Changed("limit") {
			cfg.Ingest.Limit = ingestLimit
		}
		if err := cfg.Validate("ingest"); err != nil {
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
		src, err := initSource(ctx, cfg.Ingest.Source)
		if err != nil {
			return err
		}
		defer src.Close() //nolint:errcheck

		ing := pipeline.NewIngester(src, st, ext, tbl, pipeline.IngestOptions{
			Limit:       cfg.Ingest.Limit,
			MinMainBody: cfg.Ingest.MinMainBody,
		}, zap.L())

		report, err := ing.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ingest: %d seen, %d stored, %d with quote fields, %d duplicates, %d skipped\n",
			report.Seen, report.Stored, report.Extracted, report.Duplicates, report.Skipped)

		if ingestNoRescan {
			return nil
		}
		rescan, err := ing.Reprocess(ctx)
		if err != nil {
			return eris.Wrap(err, "ingest re-scan")
		}
		if rescan.Seen > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "re-scan: %d updated, %d with quote fields, %d skipped\n",
				rescan.Stored, rescan.Extracted, rescan.Skipped)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "mail source: imap, graph or dir (default from config)")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "max new messages to store, 0 for no limit (default from config)")
	ingestCmd.Flags().BoolVar(&ingestNoRescan, "no-rescan", false, "skip re-extraction of stored unprocessed messages")
	rootCmd.AddCommand(ingestCmd)
}
