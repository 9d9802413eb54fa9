package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/Alibek88alarko/LogiGo2/internal/model"
)

// rowStrings reads a row padded to the header width; trailing empty cells
// may not survive a save.
func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(Header))
	for j, cell := range row.Cells {
		if j < len(cells) {
			cells[j] = cell.String()
		}
	}
	return cells
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	amount := 1200.0
	rows := []model.PriceRow{
		{
			PriceID: 2, LoadingLocation: "Berlin", UnloadingLocation: "Paris",
			TransportType: "truck", Subtype: "tautliner", Size: "20 pallets",
			Value: "1200 EUR", Amount: &amount, Currency: "EUR", MessageID: 7,
			ReceivedTime: time.Date(2025, 6, 2, 10, 15, 0, 0, time.UTC),
		},
		{
			PriceID: 1, LoadingLocation: "Hamburg", UnloadingLocation: "Oslo",
			TransportType: "sea", Value: "on request", MessageID: 3,
		},
	}
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, WriteXLSX(path, rows))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, Header, rowStrings(sheet.Rows[0]))
	assert.Equal(t, []string{
		"2", "Berlin", "Paris", "truck", "tautliner", "20 pallets",
		"1200 EUR", "1200", "EUR", "7", "2025-06-02 10:15:00",
	}, rowStrings(sheet.Rows[1]))
	assert.Equal(t, []string{
		"1", "Hamburg", "Oslo", "sea", "", "", "on request", "", "", "3", "",
	}, rowStrings(sheet.Rows[2]))
}

func TestBuild_HeaderStyleAndWidths(t *testing.T) {
	rows := []model.PriceRow{{
		PriceID: 1, LoadingLocation: "Sankt-Peterburg, Shushary terminal", UnloadingLocation: "Almaty",
		TransportType: "rail", Value: "4 500 USD", MessageID: 1,
	}}

	f, err := Build(rows)
	require.NoError(t, err)
	sheet := f.Sheets[0]

	for _, cell := range sheet.Rows[0].Cells {
		assert.True(t, cell.GetStyle().Font.Bold)
	}
	assert.False(t, sheet.Rows[1].Cells[1].GetStyle().Font.Bold)

	require.NotNil(t, sheet.Cols)
	loading := sheet.Col(1)
	require.NotNil(t, loading)
	assert.InDelta(t, float64(len("Sankt-Peterburg, Shushary terminal")+2), loading.Width, 0.01)
	assert.InDelta(t, float64(len("Price ID")+2), sheet.Col(0).Width, 0.01)
	assert.InDelta(t, float64(len("Currency")+2), sheet.Col(8).Width, 0.01)
	assert.InDelta(t, float64(minColWidth), sheet.Col(7).Width, 0.01)
}

func TestBuild_Empty(t *testing.T) {
	f, err := Build(nil)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1)
}

func TestWriteXLSX_BadPath(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "missing", "prices.xlsx"), nil)
	assert.Error(t, err)
}
