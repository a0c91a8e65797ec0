package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/cache"
	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/Chenyi0309/inventory-dashboard/internal/forecast"
	"github.com/Chenyi0309/inventory-dashboard/internal/ingest"
	"github.com/Chenyi0309/inventory-dashboard/internal/metrics"
	"github.com/Chenyi0309/inventory-dashboard/internal/repository"
	"github.com/Chenyi0309/inventory-dashboard/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultImportWorkers = 4

type ImportService struct {
	store   repository.EventStore
	cache   cache.EventsCache
	workers int
}

func NewImportService(store repository.EventStore, cacheImpl cache.EventsCache, workers int) *ImportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopEventsCache()
	}
	if workers <= 0 {
		workers = defaultImportWorkers
	}
	return &ImportService{store: store, cache: cacheImpl, workers: workers}
}

type parsedFile struct {
	records []domain.Record
	rows    int
	err     error
}

// ImportFiles reads the files concurrently and appends their valid rows in
// file order. A file that cannot be read is reported and skipped. A failed
// append stops the run and returns the report of the files appended before
// it along with the error.
func (s *ImportService) ImportFiles(ctx context.Context, files []*domain.UploadedFile) (*domain.ImportReport, error) {
	parsed := make([]parsedFile, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, stats, err := ingest.ReadFile(f.Path)
			parsed[i] = parsedFile{records: records, rows: stats.Rows - stats.Blank, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.ImportReport{Files: make([]domain.ImportResult, 0, len(files))}
	defer func() {
		report.ProcessedAt = time.Now()
		if report.Appended == 0 {
			return
		}
		if err := s.cache.InvalidateAll(ctx); err != nil {
			log.Warn().Err(err).Msg("import: cache invalidate failed")
		}
	}()

	for i, f := range files {
		result := domain.ImportResult{Filename: f.Filename, Rows: parsed[i].rows}

		if parsed[i].err != nil {
			result.Error = parsed[i].err.Error()
			log.Warn().Err(parsed[i].err).Str("file", f.Filename).Msg("import: failed to read file")
			report.Files = append(report.Files, result)
			continue
		}

		valid := validRecords(parsed[i].records)
		result.Dropped = result.Rows - len(valid)

		if len(valid) > 0 {
			if err := s.store.AppendRecords(ctx, valid); err != nil {
				result.Error = err.Error()
				report.TotalRows += result.Rows
				report.Files = append(report.Files, result)
				return report, fmt.Errorf("failed to append records from %s: %w", f.Filename, err)
			}
			metrics.EventsAppended(s.store.Name(), len(valid))
		}
		result.Appended = len(valid)

		report.TotalRows += result.Rows
		report.Appended += result.Appended
		report.Dropped += result.Dropped
		report.Files = append(report.Files, result)

		log.Info().Str("file", f.Filename).Int("rows", result.Rows).Int("appended", result.Appended).Msg("import: file processed")
	}
	return report, nil
}

// ImportPaths imports local files by path.
func (s *ImportService) ImportPaths(ctx context.Context, paths []string) (*domain.ImportReport, error) {
	return s.ImportFiles(ctx, UploadedFiles(paths))
}

// UploadedFiles describes local paths as uploaded files.
func UploadedFiles(paths []string) []*domain.UploadedFile {
	files := make([]*domain.UploadedFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, &domain.UploadedFile{Filename: filepath.Base(p), Path: p})
	}
	return files
}

// FetchObjects downloads every CSV and XLSX object under prefix into dir and
// returns the local paths in key order.
func FetchObjects(ctx context.Context, store storage.ObjectStorage, prefix, dir string) ([]string, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, obj := range objects {
		if !IsLedgerFile(obj.Key) {
			continue
		}
		dest := filepath.Join(dir, filepath.Base(obj.Key))
		if err := store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return nil, err
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

// IsLedgerFile reports whether name has an importable extension.
func IsLedgerFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	default:
		return false
	}
}

// validRecords drops rows the forecast would reject anyway.
func validRecords(records []domain.Record) []domain.Record {
	valid := make([]domain.Record, 0, len(records))
	for i, r := range records {
		if err := forecast.ValidateRecord(i, r); err != nil {
			continue
		}
		valid = append(valid, r)
	}
	return valid
}
