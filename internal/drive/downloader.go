package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	FolderPath  string
	DownloadDir string
}

type fileStore interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	ExportCSV(ctx context.Context, fileID string, w io.Writer) error
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

// Downloader pulls ledger files out of a Drive folder.
type Downloader struct {
	service fileStore
}

func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// DownloadFolder saves every CSV and XLSX file in the folder, plus native
// spreadsheets exported as CSV, into DownloadDir and returns the local paths
// in Drive name order.
func (d *Downloader) DownloadFolder(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	folderID := opts.FolderID
	if folderID == "" && opts.FolderPath != "" {
		id, err := d.service.FindFolderByPath(ctx, opts.FolderPath)
		if err != nil {
			return nil, err
		}
		folderID = id
	}

	files, err := d.service.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, fetch := d.plan(f)
		if fetch == nil {
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, filepath.Base(name))
		if err := writeFile(localPath, func(w io.Writer) error { return fetch(ctx, f.ID, w) }); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		log.Debug().Str("file", f.Name).Str("path", localPath).Msg("drive: downloaded ledger file")
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

func (d *Downloader) plan(f *File) (string, func(context.Context, string, io.Writer) error) {
	if f.MimeType == mimeSpreadsheet {
		return f.Name + ".csv", d.service.ExportCSV
	}

	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".csv", ".xlsx":
		return f.Name, d.service.DownloadFile
	default:
		return "", nil
	}
}

func writeFile(path string, fill func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", path, err)
	}
	if err := fill(out); err != nil {
		out.Close()
		_ = os.Remove(path)
		return err
	}
	return out.Close()
}
