package withdrawals

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"celvest/pkg/celenium"
	"celvest/pkg/checkpoint"
	"celvest/pkg/config"
	"celvest/pkg/csvsink"
	"celvest/pkg/logger"
)

// fakeClient serves canned transaction pages and events per address
type fakeClient struct {
	txs      map[string][]celenium.Transaction
	events   map[string][]celenium.Event
	txCalls  int
	evCalls  int
	failedTx map[string]error
}

func (f *fakeClient) FetchTransactions(hash string, limit, offset int64, msgType string) ([]celenium.Transaction, error) {
	f.txCalls++
	if err, ok := f.failedTx[hash]; ok {
		return nil, err
	}
	all := f.txs[hash]
	if offset >= int64(len(all)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[offset:end], nil
}

func (f *fakeClient) FetchEvents(txHash string, limit int64) ([]celenium.Event, error) {
	f.evCalls++
	return f.events[txHash], nil
}

func withdrawEvent(amount string) celenium.Event {
	return celenium.Event{
		Type: celenium.EventTypeWithdrawRewards,
		Data: celenium.EventData{Amount: amount},
	}
}

func testPipelineConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Withdrawals.BatchSize = 2
	cfg.Withdrawals.InputFile = filepath.Join(dir, "vested.csv")
	cfg.Withdrawals.TransactionsFile = filepath.Join(dir, "transactions.csv")
	cfg.Withdrawals.SummaryFile = filepath.Join(dir, "summary.csv")
	cfg.Withdrawals.CheckpointFile = filepath.Join(dir, "checkpoint.json")
	return cfg
}

func writeInput(t *testing.T, path string, addresses ...string) {
	t.Helper()

	content := "address,amount\n"
	for _, addr := range addresses {
		content += addr + ",1000000\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestPipelineAggregatesWithdrawals(t *testing.T) {
	cfg := testPipelineConfig(t)
	writeInput(t, cfg.Withdrawals.InputFile, "celestia1abc")

	client := &fakeClient{
		txs: map[string][]celenium.Transaction{
			"celestia1abc": {
				{ID: 1, Height: 100, Hash: "aaa", Fee: "2100", Status: "success", MessageTypes: []string{"MsgWithdrawDelegatorReward"}},
				{ID: 2, Height: 200, Hash: "bbb", Fee: "2100", Status: "success", MessageTypes: []string{"MsgWithdrawDelegatorReward", "MsgDelegate"}},
			},
		},
		events: map[string][]celenium.Event{
			"aaa": {withdrawEvent("300utia"), withdrawEvent("200utia")},
			"bbb": {withdrawEvent("50utia"), {Type: "transfer", Data: celenium.EventData{Amount: "999utia"}}},
		},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	txRows, err := csvsink.ReadRows(cfg.Withdrawals.TransactionsFile)
	require.NoError(t, err)
	require.Len(t, txRows, 2)

	// Hashes are uppercased, message types comma-joined
	assert.Equal(t, "AAA", txRows[0]["hash"])
	assert.Equal(t, "500", txRows[0]["withdraw_amount"])
	assert.Equal(t, "celestia1abc", txRows[0]["address"])
	assert.Equal(t, "BBB", txRows[1]["hash"])
	assert.Equal(t, "50", txRows[1]["withdraw_amount"])
	assert.Equal(t, "MsgWithdrawDelegatorReward,MsgDelegate", txRows[1]["message_types"])

	summaryRows, err := csvsink.ReadRows(cfg.Withdrawals.SummaryFile)
	require.NoError(t, err)
	require.Len(t, summaryRows, 1)
	assert.Equal(t, "celestia1abc", summaryRows[0]["address"])
	assert.Equal(t, "2", summaryRows[0]["withdraw_count"])
	assert.Equal(t, "550", summaryRows[0]["sum_withdrawn_amount"])
}

func TestPipelineWritesSummaryForAddressWithoutWithdrawals(t *testing.T) {
	cfg := testPipelineConfig(t)
	writeInput(t, cfg.Withdrawals.InputFile, "celestia1quiet")

	client := &fakeClient{}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	summaryRows, err := csvsink.ReadRows(cfg.Withdrawals.SummaryFile)
	require.NoError(t, err)
	require.Len(t, summaryRows, 1)
	assert.Equal(t, "0", summaryRows[0]["withdraw_count"])
	assert.Equal(t, "0", summaryRows[0]["sum_withdrawn_amount"])

	// No transaction rows, only the header
	txRows, err := csvsink.ReadRows(cfg.Withdrawals.TransactionsFile)
	require.NoError(t, err)
	assert.Len(t, txRows, 0)
}

func TestPipelinePaginatesTransactions(t *testing.T) {
	cfg := testPipelineConfig(t)
	writeInput(t, cfg.Withdrawals.InputFile, "celestia1many")

	// Five transactions against a batch size of two: three pages
	var txs []celenium.Transaction
	events := map[string][]celenium.Event{}
	for i := 1; i <= 5; i++ {
		hash := fmt.Sprintf("tx%d", i)
		txs = append(txs, celenium.Transaction{ID: int64(i), Hash: hash})
		events[hash] = []celenium.Event{withdrawEvent("100utia")}
	}

	client := &fakeClient{
		txs:    map[string][]celenium.Transaction{"celestia1many": txs},
		events: events,
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	summaryRows, err := csvsink.ReadRows(cfg.Withdrawals.SummaryFile)
	require.NoError(t, err)
	require.Len(t, summaryRows, 1)
	assert.Equal(t, "5", summaryRows[0]["withdraw_count"])
	assert.Equal(t, "500", summaryRows[0]["sum_withdrawn_amount"])

	// Two full pages plus the final short page
	assert.Equal(t, 3, client.txCalls)
	assert.Equal(t, 5, client.evCalls)
}

func TestPipelineResumesFromCheckpoint(t *testing.T) {
	cfg := testPipelineConfig(t)
	writeInput(t, cfg.Withdrawals.InputFile, "celestia1first", "celestia1second")

	// Pretend row 0 was already processed
	mgr, err := checkpoint.NewManager(cfg.Withdrawals.CheckpointFile, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, mgr.Save(&checkpoint.Row{LastProcessedRow: 0}))

	client := &fakeClient{
		txs: map[string][]celenium.Transaction{
			"celestia1first":  {{ID: 1, Hash: "skipme"}},
			"celestia1second": {{ID: 2, Hash: "ccc"}},
		},
		events: map[string][]celenium.Event{
			"skipme": {withdrawEvent("999utia")},
			"ccc":    {withdrawEvent("42utia")},
		},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	summaryRows, err := csvsink.ReadRows(cfg.Withdrawals.SummaryFile)
	require.NoError(t, err)
	require.Len(t, summaryRows, 1)
	assert.Equal(t, "celestia1second", summaryRows[0]["address"])
	assert.Equal(t, "42", summaryRows[0]["sum_withdrawn_amount"])

	// Checkpoint advanced to the last row
	var cur checkpoint.Row
	found, err := mgr.Load(&cur)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(1), cur.LastProcessedRow)
}

func TestPipelineCompletedRunIsIdempotent(t *testing.T) {
	cfg := testPipelineConfig(t)
	writeInput(t, cfg.Withdrawals.InputFile, "celestia1abc")

	client := &fakeClient{
		txs: map[string][]celenium.Transaction{
			"celestia1abc": {{ID: 1, Hash: "aaa"}},
		},
		events: map[string][]celenium.Event{
			"aaa": {withdrawEvent("10utia")},
		},
	}

	for i := 0; i < 2; i++ {
		p, err := New(cfg, client, logger.NewNopLogger())
		require.NoError(t, err)
		require.NoError(t, p.Run())
		require.NoError(t, p.Close())
	}

	// The second run starts past the last processed row and adds nothing
	summaryRows, err := csvsink.ReadRows(cfg.Withdrawals.SummaryFile)
	require.NoError(t, err)
	assert.Len(t, summaryRows, 1)

	txRows, err := csvsink.ReadRows(cfg.Withdrawals.TransactionsFile)
	require.NoError(t, err)
	assert.Len(t, txRows, 1)
}

func TestPipelineSkipsRowsWithoutAddress(t *testing.T) {
	cfg := testPipelineConfig(t)
	content := "address,amount\n,1000000\ncelestia1abc,1000000\n"
	require.NoError(t, os.WriteFile(cfg.Withdrawals.InputFile, []byte(content), 0644))

	client := &fakeClient{
		txs: map[string][]celenium.Transaction{
			"celestia1abc": {{ID: 1, Hash: "aaa"}},
		},
		events: map[string][]celenium.Event{
			"aaa": {withdrawEvent("10utia")},
		},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	// The empty row produced no summary but was still checkpointed past
	summaryRows, err := csvsink.ReadRows(cfg.Withdrawals.SummaryFile)
	require.NoError(t, err)
	require.Len(t, summaryRows, 1)
	assert.Equal(t, "celestia1abc", summaryRows[0]["address"])
}

func TestPipelineFailsOnFetchError(t *testing.T) {
	cfg := testPipelineConfig(t)
	writeInput(t, cfg.Withdrawals.InputFile, "celestia1bad")

	client := &fakeClient{
		failedTx: map[string]error{"celestia1bad": fmt.Errorf("upstream down")},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	err = p.Run()
	require.Error(t, err)
	p.Close()

	// The failed row must not be checkpointed
	mgr, err := checkpoint.NewManager(cfg.Withdrawals.CheckpointFile, logger.NewNopLogger())
	require.NoError(t, err)
	var cur checkpoint.Row
	found, err := mgr.Load(&cur)
	require.NoError(t, err)
	assert.False(t, found)
}
