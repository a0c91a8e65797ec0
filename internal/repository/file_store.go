package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/Chenyi0309/inventory-dashboard/internal/ingest"
)

// FileStore keeps the event table in a local CSV file. XLSX files can be
// read but not appended to.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) ListRecords(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, _, err := ingest.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}
	return records, nil
}

func (s *FileStore) AppendRecords(ctx context.Context, records []domain.Record) error {
	if strings.ToLower(filepath.Ext(s.path)) != ".csv" {
		return ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	info, statErr := os.Stat(s.path)
	writeHeader := errors.Is(statErr, fs.ErrNotExist) || (statErr == nil && info.Size() == 0)

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create event file dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	if err := ingest.WriteCSV(f, records, writeHeader); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return f.Sync()
}
