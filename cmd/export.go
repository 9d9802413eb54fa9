package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/export"
	"github.com/Alibek88alarko/LogiGo2/internal/store"
)

var (
	exportOut    string
	exportFilter store.PriceFilter
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the price history to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if exportOut != "" {
			cfg.Export.Path = exportOut
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rows, err := st.ListPrices(ctx, exportFilter)
		if err != nil {
			return err
		}
		if err := export.WriteXLSX(cfg.Export.Path, rows); err != nil {
			return err
		}

		zap.L().Info("export complete", zap.String("path", cfg.Export.Path), zap.Int("rows", len(rows)))
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d prices to %s\n", len(rows), cfg.Export.Path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default from config)")
	exportCmd.Flags().StringVar(&exportFilter.Origin, "origin", "", "only routes whose loading location contains this text")
	exportCmd.Flags().StringVar(&exportFilter.Destination, "destination", "", "only routes whose unloading location contains this text")
	exportCmd.Flags().StringVar(&exportFilter.TransportType, "transport-type", "", "only this transport type")
	rootCmd.AddCommand(exportCmd)
}
