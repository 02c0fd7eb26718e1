package withdrawals

import (
	"fmt"
	"strconv"
	"strings"

	"celvest/pkg/celenium"
	"celvest/pkg/checkpoint"
	"celvest/pkg/config"
	"celvest/pkg/csvsink"
	"celvest/pkg/logger"
)

// TransactionsHeader is the column set of the withdrawal-transaction sink
var TransactionsHeader = []string{
	"id", "height", "position", "gas_wanted", "gas_used", "timeout_height",
	"events_count", "messages_count", "hash", "fee", "time",
	"message_types", "status", "withdraw_amount", "address",
}

// SummaryHeader is the column set of the per-address summary sink
var SummaryHeader = []string{"address", "withdraw_count", "sum_withdrawn_amount"}

// Client is the slice of the Celenium API the withdrawal pipeline uses
type Client interface {
	FetchTransactions(hash string, limit, offset int64, msgType string) ([]celenium.Transaction, error)
	FetchEvents(txHash string, limit int64) ([]celenium.Event, error)
}

// Pipeline reconstructs the reward-withdrawal history for every address
// in the vested-address CSV. Addresses are processed strictly in input
// order; the index of the last fully persisted row is checkpointed so an
// interrupted run re-processes at most one address.
type Pipeline struct {
	client      Client
	cfg         *config.Config
	checkpoints *checkpoint.Manager
	txSink      *csvsink.Sink
	summarySink *csvsink.Sink
	logger      logger.Logger
}

// addressTotals aggregates one address's withdrawal history
type addressTotals struct {
	transactions  []csvsink.Row
	withdrawCount int64
	sumWithdrawn  int64
}

// New creates a withdrawal history pipeline from the given configuration
func New(cfg *config.Config, client Client, log logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	mgr, err := checkpoint.NewManager(cfg.Withdrawals.CheckpointFile, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	txSink, err := csvsink.New(cfg.Withdrawals.TransactionsFile, TransactionsHeader, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions sink: %w", err)
	}

	summarySink, err := csvsink.New(cfg.Withdrawals.SummaryFile, SummaryHeader, log)
	if err != nil {
		txSink.Close()
		return nil, fmt.Errorf("failed to open summary sink: %w", err)
	}

	return &Pipeline{
		client:      client,
		cfg:         cfg,
		checkpoints: mgr,
		txSink:      txSink,
		summarySink: summarySink,
		logger:      log,
	}, nil
}

// Close releases the pipeline's sinks
func (p *Pipeline) Close() error {
	txErr := p.txSink.Close()
	sumErr := p.summarySink.Close()
	if txErr != nil {
		return txErr
	}
	return sumErr
}

// Run processes all input rows after the checkpointed index
func (p *Pipeline) Run() error {
	var cur checkpoint.Row
	found, err := p.checkpoints.Load(&cur)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if !found {
		cur.LastProcessedRow = -1
	} else {
		p.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
			"last_processed_row": cur.LastProcessedRow,
		})
	}

	rows, err := csvsink.ReadRows(p.cfg.Withdrawals.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	p.logger.InfoWithFields("loaded input addresses", map[string]interface{}{
		"total": len(rows),
	})

	for i, row := range rows {
		if int64(i) <= cur.LastProcessedRow {
			continue
		}

		address := row["address"]
		if address == "" {
			p.logger.WarnWithFields("input row has no address, skipping", map[string]interface{}{
				"row": i,
			})
		} else {
			totals, err := p.processAddress(i, address)
			if err != nil {
				return fmt.Errorf("failed to process row %d (%s): %w", i, address, err)
			}

			if len(totals.transactions) > 0 {
				if err := p.txSink.WriteRows(totals.transactions); err != nil {
					return fmt.Errorf("failed to write transactions: %w", err)
				}
			}

			if err := p.summarySink.WriteRow(csvsink.Row{
				"address":              address,
				"withdraw_count":       strconv.FormatInt(totals.withdrawCount, 10),
				"sum_withdrawn_amount": strconv.FormatInt(totals.sumWithdrawn, 10),
			}); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}

			p.logger.InfoWithFields("completed address", map[string]interface{}{
				"row":         i,
				"address":     address,
				"withdrawals": totals.withdrawCount,
				"total":       totals.sumWithdrawn,
			})
		}

		// Transactions and summary are durable; advance the cursor.
		if err := p.checkpoints.Save(&checkpoint.Row{LastProcessedRow: int64(i)}); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
	}

	p.logger.Info("withdrawal processing completed")
	return nil
}

// processAddress pages through an address's withdrawal transactions and
// derives per-transaction and aggregate withdrawal amounts. Transaction
// and event fetches run strictly sequentially: the event fetch depends on
// the transaction page and the upstream rate limit is global anyway.
func (p *Pipeline) processAddress(rowNum int, address string) (*addressTotals, error) {
	p.logger.InfoWithFields("processing address", map[string]interface{}{
		"row":     rowNum,
		"address": address,
	})

	totals := &addressTotals{}
	batchSize := int64(p.cfg.Withdrawals.BatchSize)
	var offset int64

	for {
		txs, err := p.client.FetchTransactions(address, batchSize, offset, p.cfg.Withdrawals.MessageType)
		if err != nil {
			return nil, err
		}

		if len(txs) == 0 {
			break
		}

		for _, tx := range txs {
			events, err := p.client.FetchEvents(tx.Hash, int64(p.cfg.Withdrawals.EventsLimit))
			if err != nil {
				return nil, err
			}

			amount := WithdrawAmount(events, p.cfg.Withdrawals.Denom, p.logger)
			totals.transactions = append(totals.transactions, transactionRow(address, tx, amount))
			totals.withdrawCount++
			totals.sumWithdrawn += amount

			p.logger.DebugWithFields("processed transaction", map[string]interface{}{
				"address":         address,
				"tx_hash":         tx.Hash,
				"withdraw_amount": amount,
			})
		}

		offset += int64(len(txs))
		if int64(len(txs)) < batchSize {
			break
		}
	}

	return totals, nil
}

// transactionRow flattens a transaction into a sink row. The hash is
// uppercased so downstream joins against other exports line up.
func transactionRow(address string, tx celenium.Transaction, withdrawAmount int64) csvsink.Row {
	return csvsink.Row{
		"id":              strconv.FormatInt(tx.ID, 10),
		"height":          strconv.FormatInt(tx.Height, 10),
		"position":        strconv.FormatInt(tx.Position, 10),
		"gas_wanted":      strconv.FormatInt(tx.GasWanted, 10),
		"gas_used":        strconv.FormatInt(tx.GasUsed, 10),
		"timeout_height":  strconv.FormatInt(tx.TimeoutHeight, 10),
		"events_count":    strconv.FormatInt(tx.EventsCount, 10),
		"messages_count":  strconv.FormatInt(tx.MessagesCount, 10),
		"hash":            strings.ToUpper(tx.Hash),
		"fee":             tx.Fee,
		"time":            tx.Time,
		"message_types":   strings.Join(tx.MessageTypes, ","),
		"status":          tx.Status,
		"withdraw_amount": strconv.FormatInt(withdrawAmount, 10),
		"address":         address,
	}
}
