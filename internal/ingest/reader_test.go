package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/Chenyi0309/inventory-dashboard/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\ufeff日期 (Date),食材名称 (Item Name),数量 (Qty),单位 (Unit),单价 (Unit Price),状态 (Status)\n" +
	"2024-01-01,rice,10,kg,4,买入\n" +
	",,,,,\n" +
	"2024-01-08,rice,4,kg,,剩余\n"

func TestReadCSV(t *testing.T) {
	header, rows, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, "日期 (Date)", header[0])
	assert.Len(t, rows, 3)
}

func TestReadFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	records, stats, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Blank)
	require.Len(t, records, 2)
	assert.Equal(t, domain.EventPurchase, records[0].Kind)
	assert.Equal(t, "40", records[0].TotalCost.String())
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), records[1].Date)
}

func TestReadFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"日期", "物品名", "数量", "状态"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2024-02-01", "oil", "2", "剩余"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2024-02-05", "oil", "8", "库存"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, stats, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
	require.Len(t, records, 2)
	assert.Equal(t, "oil", records[1].Item)
	assert.Equal(t, domain.EventRemainder, records[1].Kind)
	assert.Equal(t, 8.0, *records[1].Quantity)
}

func TestReadFile_XLSXDateCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dated.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"日期", "物品名", "数量", "状态"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "rice", 10, "purchase"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), "rice", 6, "remainder"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, _, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), records[1].Date)
	assert.Equal(t, 10.0, *records[0].Quantity)
	assert.Equal(t, domain.EventRemainder, records[1].Kind)
}

func TestReadFile_Unsupported(t *testing.T) {
	_, _, err := ReadFile("ledger.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteCSV(t *testing.T) {
	q := 3.0
	var buf bytes.Buffer
	err := WriteCSV(&buf, []domain.Record{{
		Item:     "egg",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Kind:     domain.EventPurchase,
		Quantity: &q,
	}}, true)
	require.NoError(t, err)

	header, rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, normalize.Headers, header)
	require.Len(t, rows, 1)
	assert.Equal(t, "买入", rows[0][normalize.ColStatus])
}
