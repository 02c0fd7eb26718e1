package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"celvest/pkg/checkpoint"
	"celvest/pkg/logger"
	"celvest/pkg/withdrawals"
)

var (
	// Withdrawals command flags
	withdrawBatchSize    int
	withdrawRateLimit    int
	withdrawMaxRetries   int
	withdrawInput        string
	withdrawTransactions string
	withdrawSummary      string
	withdrawCheckpoint   string
	withdrawAPIKey       string
	withdrawRestart      bool
)

// withdrawalsCmd represents the withdrawals command
var withdrawalsCmd = &cobra.Command{
	Use:   "withdrawals",
	Short: "Export the reward-withdrawal history of every vested address",
	Long: `Read the vested-address CSV produced by 'celvest discover' and, for
each address, fetch every MsgWithdrawDelegatorReward transaction together
with its events. Each transaction row carries the withdrawn amount derived
from its withdraw_rewards events, and one summary row per address records
the withdrawal count and total.

Addresses are processed strictly in input order and the last completed
row index is checkpointed, so an interrupted run re-processes at most one
address.`,
	Example: `  # Process the default discovery output
  celvest withdrawals

  # Explicit files
  celvest withdrawals --input ./data/vested.csv --transactions ./data/txs.csv

  # Start over, ignoring any previous progress
  celvest withdrawals --force-restart`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithdrawals()
	},
}

func init() {
	rootCmd.AddCommand(withdrawalsCmd)

	withdrawalsCmd.Flags().IntVar(&withdrawBatchSize, "batch-size", 0, "transactions per page")
	withdrawalsCmd.Flags().IntVar(&withdrawRateLimit, "rate-limit", 0, "API requests per second")
	withdrawalsCmd.Flags().IntVar(&withdrawMaxRetries, "max-retries", -1, "retry attempts per request (0 = retry forever)")
	withdrawalsCmd.Flags().StringVarP(&withdrawInput, "input", "i", "", "vested-address CSV to read")
	withdrawalsCmd.Flags().StringVar(&withdrawTransactions, "transactions", "", "transactions output CSV file")
	withdrawalsCmd.Flags().StringVar(&withdrawSummary, "summary", "", "summary output CSV file")
	withdrawalsCmd.Flags().StringVar(&withdrawCheckpoint, "checkpoint", "", "checkpoint file")
	withdrawalsCmd.Flags().StringVar(&withdrawAPIKey, "api-key", "", "Celenium API key")
	withdrawalsCmd.Flags().BoolVar(&withdrawRestart, "force-restart", false, "ignore existing checkpoint and start from the beginning")
}

func runWithdrawals() error {
	flags := map[string]interface{}{
		"batch-size":  withdrawBatchSize,
		"rate-limit":  withdrawRateLimit,
		"max-retries": withdrawMaxRetries,
		"api-key":     withdrawAPIKey,
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if withdrawInput != "" {
		cfg.Withdrawals.InputFile = withdrawInput
	}
	if withdrawTransactions != "" {
		cfg.Withdrawals.TransactionsFile = withdrawTransactions
	}
	if withdrawSummary != "" {
		cfg.Withdrawals.SummaryFile = withdrawSummary
	}
	if withdrawCheckpoint != "" {
		cfg.Withdrawals.CheckpointFile = withdrawCheckpoint
	}

	log := logger.GetLogger()
	resolveAPIKey(cfg, log)

	if withdrawRestart {
		mgr, err := checkpoint.NewManager(cfg.Withdrawals.CheckpointFile, log)
		if err != nil {
			return err
		}
		if mgr.Exists() {
			if err := mgr.Delete(); err != nil {
				return fmt.Errorf("failed to delete checkpoint: %w", err)
			}
			log.Info("force restart: existing checkpoint deleted")
		}
	}

	client := newClient(cfg, log)

	pipeline, err := withdrawals.New(cfg, client, log)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	log.InfoWithFields("starting withdrawal processing", map[string]interface{}{
		"input":        cfg.Withdrawals.InputFile,
		"transactions": cfg.Withdrawals.TransactionsFile,
		"summary":      cfg.Withdrawals.SummaryFile,
		"checkpoint":   cfg.Withdrawals.CheckpointFile,
	})

	return pipeline.Run()
}
