package csvsink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"celvest/pkg/logger"
)

// Row is a record keyed by column name. Columns not in the sink's header
// are dropped; missing columns are written as empty strings.
type Row map[string]string

// Sink appends rows to a CSV file with a fixed column set. The header is
// written exactly once, when the file is first created; reopening an
// existing file appends without touching the header.
type Sink struct {
	path   string
	header []string
	file   *os.File
	writer *csv.Writer
	logger logger.Logger
}

// New opens (or creates) the CSV file at path with the given header
func New(path string, header []string, log logger.Logger) (*Sink, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("sink header is required")
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if log == nil {
		log = logger.GetLogger()
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open sink file: %w", err)
	}

	sink := &Sink{
		path:   path,
		header: header,
		file:   file,
		writer: csv.NewWriter(file),
		logger: log,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat sink file: %w", err)
	}

	if info.Size() == 0 {
		if err := sink.writer.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		if err := sink.flush(); err != nil {
			file.Close()
			return nil, err
		}
		log.InfoWithFields("created new CSV file and wrote header", map[string]interface{}{
			"path": path,
		})
	}

	return sink, nil
}

// Path returns the sink file location
func (s *Sink) Path() string {
	return s.path
}

// Header returns the sink's fixed column set
func (s *Sink) Header() []string {
	return s.header
}

// WriteRows appends the given rows, filtered and defaulted to the sink's
// column set, and makes them durable before returning. Callers checkpoint
// only after WriteRows succeeds.
func (s *Sink) WriteRows(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	record := make([]string, len(s.header))
	for _, row := range rows {
		for i, field := range s.header {
			record[i] = row[field]
		}
		if err := s.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := s.flush(); err != nil {
		return err
	}

	s.logger.DebugWithFields("rows written to sink", map[string]interface{}{
		"path": s.path,
		"rows": len(rows),
	})

	return nil
}

// WriteRow appends a single row
func (s *Sink) WriteRow(row Row) error {
	return s.WriteRows([]Row{row})
}

// flush drains the csv writer and syncs the file to disk
func (s *Sink) flush() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush sink: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync sink file: %w", err)
	}
	return nil
}

// Close flushes pending rows and closes the underlying file
func (s *Sink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to flush sink on close: %w", err)
	}
	return s.file.Close()
}
