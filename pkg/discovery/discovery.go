package discovery

import (
	"fmt"
	"strconv"

	"celvest/internal/lookup"
	"celvest/pkg/celenium"
	"celvest/pkg/checkpoint"
	"celvest/pkg/config"
	"celvest/pkg/csvsink"
	"celvest/pkg/logger"
)

// VestingHeader is the column set of the vested-address sink
var VestingHeader = []string{
	"address", "amount", "end_time", "hash", "height", "id", "start_time", "time", "type",
}

// Client is the slice of the Celenium API the discovery pipeline uses
type Client interface {
	FetchAddresses(limit, offset int64) ([]celenium.Address, error)
	FetchVestings(hash string) ([]celenium.VestingRecord, error)
}

// Pipeline walks the full address listing page by page, looks up vesting
// schedules for each address with bounded concurrency, and appends every
// vesting record found to the vested-address CSV. The page offset is
// checkpointed after each page's rows are durable, so an interrupted run
// resumes at the last incomplete page.
type Pipeline struct {
	client      Client
	cfg         *config.Config
	checkpoints *checkpoint.Manager
	sink        *csvsink.Sink
	logger      logger.Logger
}

// New creates a discovery pipeline from the given configuration
func New(cfg *config.Config, client Client, log logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	mgr, err := checkpoint.NewManager(cfg.Discovery.CheckpointFile, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	sink, err := csvsink.New(cfg.Discovery.OutputFile, VestingHeader, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open vesting sink: %w", err)
	}

	return &Pipeline{
		client:      client,
		cfg:         cfg,
		checkpoints: mgr,
		sink:        sink,
		logger:      log,
	}, nil
}

// Close releases the pipeline's sink
func (p *Pipeline) Close() error {
	return p.sink.Close()
}

// Run processes the full address listing from the checkpointed offset.
// It terminates when a fetched page is empty or shorter than the batch
// size.
func (p *Pipeline) Run() error {
	var cur checkpoint.Offset
	found, err := p.checkpoints.Load(&cur)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if found {
		p.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
			"offset": cur.Offset,
		})
	}

	batchSize := int64(p.cfg.Discovery.BatchSize)
	offset := cur.Offset

	for {
		p.logger.InfoWithFields("processing batch", map[string]interface{}{
			"offset":     offset,
			"batch_size": batchSize,
		})

		addresses, err := p.client.FetchAddresses(batchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to fetch address batch at offset %d: %w", offset, err)
		}

		if len(addresses) == 0 {
			p.logger.Info("no more addresses to process")
			break
		}

		rows := p.processBatch(addresses)

		if len(rows) > 0 {
			if err := p.sink.WriteRows(rows); err != nil {
				return fmt.Errorf("failed to write vesting rows: %w", err)
			}
			p.logger.InfoWithFields("wrote vesting entries", map[string]interface{}{
				"rows": len(rows),
			})
		} else {
			p.logger.Info("no vesting entries found in this batch")
		}

		// The batch is durable; only now may the cursor advance.
		offset += int64(len(addresses))
		if err := p.checkpoints.Save(&checkpoint.Offset{Offset: offset}); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}

		p.logger.InfoWithFields("completed batch", map[string]interface{}{
			"next_offset": offset,
		})

		if int64(len(addresses)) < batchSize {
			p.logger.Info("reached end of address listing")
			break
		}
	}

	p.logger.InfoWithFields("address discovery completed", map[string]interface{}{
		"output": p.sink.Path(),
	})

	return nil
}

// processBatch runs the vesting lookups for one page of addresses through
// the bounded worker pool and flattens the results into sink rows. A
// failed lookup contributes no rows; the rest of the batch is unaffected.
func (p *Pipeline) processBatch(addresses []celenium.Address) []csvsink.Row {
	pool := lookup.NewWorkerPool(p.cfg.Discovery.Workers, p.client, p.logger)
	pool.Start()

	go func() {
		for _, addr := range addresses {
			if err := pool.Submit(lookup.Job{Address: addr.Hash}); err != nil {
				p.logger.WithError(err).WithField("address", addr.Hash).Error("failed to submit lookup job")
			}
		}
		pool.Stop()
	}()

	var rows []csvsink.Row
	for result := range pool.Results() {
		if result.Err != nil {
			continue
		}
		for _, vesting := range result.Records {
			rows = append(rows, vestingRow(result.Job.Address, vesting))
			p.logger.InfoWithFields("found vesting", map[string]interface{}{
				"address": result.Job.Address,
				"amount":  vesting.Amount,
			})
		}
	}

	return rows
}

// vestingRow flattens one vesting record, tagged with its owning address
func vestingRow(address string, v celenium.VestingRecord) csvsink.Row {
	return csvsink.Row{
		"address":    address,
		"amount":     v.Amount,
		"end_time":   v.EndTime,
		"hash":       v.Hash,
		"height":     strconv.FormatInt(v.Height, 10),
		"id":         strconv.FormatInt(v.ID, 10),
		"start_time": v.StartTime,
		"time":       v.Time,
		"type":       v.Type,
	}
}
