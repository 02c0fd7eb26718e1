package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"celvest/pkg/logger"
)

func TestManager(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("LoadMissingReturnsFalse", func(t *testing.T) {
		mgr, err := NewManager(filepath.Join(t.TempDir(), "checkpoint.json"), log)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		var cur Offset
		found, err := mgr.Load(&cur)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if found {
			t.Error("Expected no checkpoint to be found")
		}
		if cur.Offset != 0 {
			t.Errorf("Expected zero offset, got %d", cur.Offset)
		}
	})

	t.Run("SaveAndLoadOffset", func(t *testing.T) {
		mgr, err := NewManager(filepath.Join(t.TempDir(), "checkpoint.json"), log)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if err := mgr.Save(&Offset{Offset: 700}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		var cur Offset
		found, err := mgr.Load(&cur)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !found {
			t.Fatal("Expected checkpoint to be found")
		}
		if cur.Offset != 700 {
			t.Errorf("Expected offset 700, got %d", cur.Offset)
		}
	})

	t.Run("SaveAndLoadRow", func(t *testing.T) {
		mgr, err := NewManager(filepath.Join(t.TempDir(), "rows.json"), log)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if err := mgr.Save(&Row{LastProcessedRow: 41}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		var cur Row
		found, err := mgr.Load(&cur)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !found {
			t.Fatal("Expected checkpoint to be found")
		}
		if cur.LastProcessedRow != 41 {
			t.Errorf("Expected last processed row 41, got %d", cur.LastProcessedRow)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		mgr, err := NewManager(filepath.Join(t.TempDir(), "checkpoint.json"), log)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		for _, offset := range []int64{100, 200, 300} {
			if err := mgr.Save(&Offset{Offset: offset}); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		var cur Offset
		if _, err := mgr.Load(&cur); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cur.Offset != 300 {
			t.Errorf("Expected latest offset 300, got %d", cur.Offset)
		}
	})

	t.Run("CorruptFileIsAnError", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "checkpoint.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatalf("Failed to write corrupt file: %v", err)
		}

		mgr, err := NewManager(path, log)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		var cur Offset
		if _, err := mgr.Load(&cur); err == nil {
			t.Error("Expected an error for a corrupt checkpoint file")
		}
	})

	t.Run("DeleteAndExists", func(t *testing.T) {
		mgr, err := NewManager(filepath.Join(t.TempDir(), "checkpoint.json"), log)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if mgr.Exists() {
			t.Error("Expected no checkpoint before Save")
		}

		if err := mgr.Save(&Offset{Offset: 1}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if !mgr.Exists() {
			t.Error("Expected checkpoint to exist after Save")
		}

		if err := mgr.Delete(); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if mgr.Exists() {
			t.Error("Expected checkpoint to be gone after Delete")
		}

		// Deleting a missing checkpoint is not an error
		if err := mgr.Delete(); err != nil {
			t.Errorf("Expected Delete of missing checkpoint to succeed, got %v", err)
		}
	})

	t.Run("CreatesParentDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "checkpoint.json")
		mgr, err := NewManager(path, log)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if err := mgr.Save(&Offset{Offset: 5}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	})

	t.Run("EmptyPathRejected", func(t *testing.T) {
		if _, err := NewManager("", log); err == nil {
			t.Error("Expected an error for an empty checkpoint path")
		}
	})
}
