package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"celvest/pkg/checkpoint"
	"celvest/pkg/discovery"
	"celvest/pkg/logger"
)

var (
	// Discover command flags
	discoverBatchSize  int
	discoverWorkers    int
	discoverRateLimit  int
	discoverMaxRetries int
	discoverOutput     string
	discoverCheckpoint string
	discoverAPIKey     string
	discoverRestart    bool
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover every address holding a vesting schedule",
	Long: `Page through the full Celenium address listing and query each address
for vesting schedules. Every vesting record found is appended to the
vested-address CSV, tagged with its owning address.

Progress is checkpointed per page: if the run is interrupted, the next
invocation resumes from the last completed page. Use --force-restart to
discard the checkpoint and start from offset zero.`,
	Example: `  # Run discovery with defaults (resumes automatically)
  celvest discover

  # Custom output location and worker count
  celvest discover --output ./data/vested.csv --workers 3

  # Start over, ignoring any previous progress
  celvest discover --force-restart`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiscover()
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().IntVar(&discoverBatchSize, "batch-size", 0, "addresses per page")
	discoverCmd.Flags().IntVar(&discoverWorkers, "workers", 0, "concurrent vesting lookups per page")
	discoverCmd.Flags().IntVar(&discoverRateLimit, "rate-limit", 0, "API requests per second")
	discoverCmd.Flags().IntVar(&discoverMaxRetries, "max-retries", -1, "retry attempts per request (0 = retry forever)")
	discoverCmd.Flags().StringVarP(&discoverOutput, "output", "o", "", "output CSV file")
	discoverCmd.Flags().StringVar(&discoverCheckpoint, "checkpoint", "", "checkpoint file")
	discoverCmd.Flags().StringVar(&discoverAPIKey, "api-key", "", "Celenium API key")
	discoverCmd.Flags().BoolVar(&discoverRestart, "force-restart", false, "ignore existing checkpoint and start from the beginning")
}

func runDiscover() error {
	flags := map[string]interface{}{
		"batch-size":  discoverBatchSize,
		"workers":     discoverWorkers,
		"rate-limit":  discoverRateLimit,
		"max-retries": discoverMaxRetries,
		"api-key":     discoverAPIKey,
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if discoverOutput != "" {
		cfg.Discovery.OutputFile = discoverOutput
	}
	if discoverCheckpoint != "" {
		cfg.Discovery.CheckpointFile = discoverCheckpoint
	}

	log := logger.GetLogger()
	resolveAPIKey(cfg, log)

	if discoverRestart {
		mgr, err := checkpoint.NewManager(cfg.Discovery.CheckpointFile, log)
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

	pipeline, err := discovery.New(cfg, client, log)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	log.InfoWithFields("starting address discovery", map[string]interface{}{
		"output":     cfg.Discovery.OutputFile,
		"checkpoint": cfg.Discovery.CheckpointFile,
		"batch_size": cfg.Discovery.BatchSize,
		"workers":    cfg.Discovery.Workers,
	})

	return pipeline.Run()
}
