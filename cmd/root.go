package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rtfti/ftscore/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ftscore",
	Short: "Financial Trust Score pipeline for small businesses",
	Long:  "Ingests general ledger, bank, GST, and payroll exports, cross-validates them through five rules, and produces a weighted trust score with confidence.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("CONFIG_INVALID: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
