package discovery

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"celvest/pkg/celenium"
	"celvest/pkg/checkpoint"
	"celvest/pkg/config"
	"celvest/pkg/csvsink"
	"celvest/pkg/logger"
)

// fakeClient serves a fixed address listing and vesting lookups
type fakeClient struct {
	addresses      []celenium.Address
	vestings       map[string][]celenium.VestingRecord
	failedVestings map[string]error
	fetchCalls     []int64
}

func (f *fakeClient) FetchAddresses(limit, offset int64) ([]celenium.Address, error) {
	f.fetchCalls = append(f.fetchCalls, offset)
	if offset >= int64(len(f.addresses)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(f.addresses)) {
		end = int64(len(f.addresses))
	}
	return f.addresses[offset:end], nil
}

func (f *fakeClient) FetchVestings(hash string) ([]celenium.VestingRecord, error) {
	if err, ok := f.failedVestings[hash]; ok {
		return nil, err
	}
	return f.vestings[hash], nil
}

func testDiscoveryConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Discovery.BatchSize = 2
	cfg.Discovery.Workers = 2
	cfg.Discovery.OutputFile = filepath.Join(dir, "vested.csv")
	cfg.Discovery.CheckpointFile = filepath.Join(dir, "checkpoint.json")
	return cfg
}

func addr(n int) celenium.Address {
	return celenium.Address{ID: int64(n), Hash: fmt.Sprintf("celestia1addr%d", n)}
}

func TestPipelineWritesVestingRows(t *testing.T) {
	cfg := testDiscoveryConfig(t)

	client := &fakeClient{
		addresses: []celenium.Address{addr(1), addr(2)},
		vestings: map[string][]celenium.VestingRecord{
			"celestia1addr1": {
				{ID: 10, Amount: "1000000", StartTime: "2023-10-31T00:00:00Z", EndTime: "2024-10-31T00:00:00Z", Hash: "VEST1", Height: 42, Time: "2023-10-31T14:00:00Z", Type: "delayed"},
			},
		},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	rows, err := csvsink.ReadRows(cfg.Discovery.OutputFile)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "celestia1addr1", rows[0]["address"])
	assert.Equal(t, "1000000", rows[0]["amount"])
	assert.Equal(t, "42", rows[0]["height"])
	assert.Equal(t, "10", rows[0]["id"])
	assert.Equal(t, "delayed", rows[0]["type"])
}

func TestPipelineStopsOnShortPage(t *testing.T) {
	cfg := testDiscoveryConfig(t)

	// Five addresses against a batch size of two: offsets 0, 2, 4
	client := &fakeClient{
		addresses: []celenium.Address{addr(1), addr(2), addr(3), addr(4), addr(5)},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	assert.Equal(t, []int64{0, 2, 4}, client.fetchCalls)

	// Final checkpoint covers all five addresses
	mgr, err := checkpoint.NewManager(cfg.Discovery.CheckpointFile, logger.NewNopLogger())
	require.NoError(t, err)
	var cur checkpoint.Offset
	found, err := mgr.Load(&cur)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(5), cur.Offset)
}

func TestPipelineStopsOnEmptyPage(t *testing.T) {
	cfg := testDiscoveryConfig(t)

	// Four addresses fill two whole pages; the third fetch returns nothing
	client := &fakeClient{
		addresses: []celenium.Address{addr(1), addr(2), addr(3), addr(4)},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	assert.Equal(t, []int64{0, 2, 4}, client.fetchCalls)
}

func TestPipelineResumesFromCheckpoint(t *testing.T) {
	cfg := testDiscoveryConfig(t)

	mgr, err := checkpoint.NewManager(cfg.Discovery.CheckpointFile, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, mgr.Save(&checkpoint.Offset{Offset: 2}))

	client := &fakeClient{
		addresses: []celenium.Address{addr(1), addr(2), addr(3)},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	// The first page was never re-fetched
	assert.Equal(t, []int64{2}, client.fetchCalls)
}

func TestPipelineSurvivesFailedLookups(t *testing.T) {
	cfg := testDiscoveryConfig(t)

	client := &fakeClient{
		addresses: []celenium.Address{addr(1), addr(2)},
		vestings: map[string][]celenium.VestingRecord{
			"celestia1addr2": {{ID: 20, Amount: "500", Hash: "VEST2"}},
		},
		failedVestings: map[string]error{
			"celestia1addr1": fmt.Errorf("upstream down"),
		},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	// The failed address contributes no rows; the batch still completes
	rows, err := csvsink.ReadRows(cfg.Discovery.OutputFile)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "celestia1addr2", rows[0]["address"])
}

func TestPipelineMultipleVestingsPerAddress(t *testing.T) {
	cfg := testDiscoveryConfig(t)

	client := &fakeClient{
		addresses: []celenium.Address{addr(1)},
		vestings: map[string][]celenium.VestingRecord{
			"celestia1addr1": {
				{ID: 1, Amount: "100"},
				{ID: 2, Amount: "200"},
				{ID: 3, Amount: "300"},
			},
		},
	}

	p, err := New(cfg, client, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	rows, err := csvsink.ReadRows(cfg.Discovery.OutputFile)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var amounts []string
	for _, row := range rows {
		amounts = append(amounts, row["amount"])
	}
	sort.Strings(amounts)
	assert.Equal(t, []string{"100", "200", "300"}, amounts)
}
