package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/config"
)

var (
	cfg    *config.Config
	dbFlag string
)

var rootCmd = &cobra.Command{
	Use:   "logigo",
	Short: "Freight-quote mail ingestion and normalization",
	Long:  "Reads quote requests and offers from a mailbox, extracts route, cargo and price fields with a completion model, and normalizes them into a price history.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbFlag != "" {
			c.Store.DatabaseURL = dbFlag
		}
		cfg = c

		if _, err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "store location (overrides store.database_url)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
