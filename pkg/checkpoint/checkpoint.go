package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"celvest/pkg/logger"
)

// Offset is the cursor persisted by the address discovery pipeline. It
// holds the next page offset to request.
type Offset struct {
	Offset int64 `json:"offset"`
}

// Row is the cursor persisted by the withdrawal history pipeline. It holds
// the index of the last fully processed input row; -1 means nothing has
// been processed yet.
type Row struct {
	LastProcessedRow int64 `json:"last_processed_row"`
}

// Manager persists a single cursor as a JSON file. Cursors are written
// only after the corresponding sink output is durable, so a crash between
// the two re-processes at most one unit of work on the next run.
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a checkpoint manager for the given file path
func NewManager(path string, log logger.Logger) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	if log == nil {
		log = logger.GetLogger()
	}

	return &Manager{
		path:   path,
		logger: log,
	}, nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.path
}

// Load reads the persisted cursor into v. It returns false with a nil
// error when no checkpoint exists yet; the caller applies its default.
// An unreadable or undecodable file is an error: restarting silently
// from zero would duplicate every row already in the sinks.
func (m *Manager) Load(v interface{}) (bool, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.InfoWithFields("no checkpoint found, starting from the beginning", map[string]interface{}{
				"path": m.path,
			})
			return false, nil
		}
		return false, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("corrupt checkpoint file %s: %w", m.path, err)
	}

	m.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"path": m.path,
	})

	return true, nil
}

// Save atomically overwrites the persisted cursor. Data is written to a
// temporary file, synced, and renamed into place so a crash mid-write
// never leaves a torn checkpoint behind.
func (m *Manager) Save(v interface{}) error {
	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	if err := encoder.Encode(v); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"path": m.path,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.InfoWithFields("checkpoint deleted", map[string]interface{}{
		"path": m.path,
	})
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
