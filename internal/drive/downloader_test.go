package drive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDrive struct {
	files    []*File
	content  map[string]string
	folders  map[string]string
	failOn   string
	listedID string
}

func (f *fakeDrive) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	f.listedID = folderID
	return f.files, nil
}

func (f *fakeDrive) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	if fileID == f.failOn {
		return errors.New("boom")
	}
	_, err := io.WriteString(w, f.content[fileID])
	return err
}

func (f *fakeDrive) ExportCSV(ctx context.Context, fileID string, w io.Writer) error {
	_, err := io.WriteString(w, "exported:"+f.content[fileID])
	return err
}

func (f *fakeDrive) FindFolderByPath(ctx context.Context, path string) (string, error) {
	id, ok := f.folders[path]
	if !ok {
		return "", errors.New("folder not found")
	}
	return id, nil
}

func TestDownloadFolder(t *testing.T) {
	fake := &fakeDrive{
		files: []*File{
			{ID: "1", Name: "jan.csv"},
			{ID: "2", Name: "notes.txt"},
			{ID: "3", Name: "feb.xlsx"},
			{ID: "4", Name: "live ledger", MimeType: mimeSpreadsheet},
		},
		content: map[string]string{"1": "a,b", "3": "xlsx-bytes", "4": "c,d"},
		folders: map[string]string{"ledgers/2024": "folder-2024"},
	}
	dir := t.TempDir()
	d := &Downloader{service: fake}

	paths, err := d.DownloadFolder(context.Background(), DownloadOptions{FolderPath: "ledgers/2024", DownloadDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "folder-2024", fake.listedID)
	assert.Equal(t, []string{
		filepath.Join(dir, "jan.csv"),
		filepath.Join(dir, "feb.xlsx"),
		filepath.Join(dir, "live ledger.csv"),
	}, paths)

	data, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Equal(t, "exported:c,d", string(data))
}

func TestDownloadFolder_Errors(t *testing.T) {
	d := &Downloader{service: &fakeDrive{}}
	_, err := d.DownloadFolder(context.Background(), DownloadOptions{})
	assert.Error(t, err)

	fake := &fakeDrive{files: []*File{{ID: "1", Name: "jan.csv"}}, failOn: "1"}
	dir := t.TempDir()
	d = &Downloader{service: fake}
	_, err = d.DownloadFolder(context.Background(), DownloadOptions{FolderID: "x", DownloadDir: dir})
	assert.ErrorContains(t, err, "jan.csv")
	_, statErr := os.Stat(filepath.Join(dir, "jan.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `Bob\'s`, escapeQuery("Bob's"))
}
