package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"celvest/pkg/checkpoint"
	"celvest/pkg/logger"
)

// statusCmd reports where each pipeline would resume
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint progress for both pipelines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus() error {
	cfg, err := loadConfig(map[string]interface{}{})
	if err != nil {
		return err
	}

	log := logger.NewNopLogger()

	discoveryMgr, err := checkpoint.NewManager(cfg.Discovery.CheckpointFile, log)
	if err != nil {
		return err
	}

	var offset checkpoint.Offset
	found, err := discoveryMgr.Load(&offset)
	if err != nil {
		return fmt.Errorf("discovery checkpoint: %w", err)
	}
	if found {
		fmt.Printf("discovery:    resumes at offset %d (%s)\n", offset.Offset, discoveryMgr.Path())
	} else {
		fmt.Printf("discovery:    no checkpoint, starts from offset 0\n")
	}

	withdrawalMgr, err := checkpoint.NewManager(cfg.Withdrawals.CheckpointFile, log)
	if err != nil {
		return err
	}

	var row checkpoint.Row
	found, err = withdrawalMgr.Load(&row)
	if err != nil {
		return fmt.Errorf("withdrawals checkpoint: %w", err)
	}
	if found {
		fmt.Printf("withdrawals:  resumes after row %d (%s)\n", row.LastProcessedRow, withdrawalMgr.Path())
	} else {
		fmt.Printf("withdrawals:  no checkpoint, starts from row 0\n")
	}

	return nil
}
