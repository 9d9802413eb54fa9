// Package export writes the normalized price history to spreadsheets.
package export

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Alibek88alarko/LogiGo2/internal/model"
)

// SheetName is the worksheet holding the price rows.
const SheetName = "Prices"

const (
	minColWidth = 8
	maxColWidth = 60
)

// Header lists the exported columns in order.
var Header = []string{
	"Price ID",
	"Loading location",
	"Unloading location",
	"Transport type",
	"Subtype",
	"Size",
	"Price",
	"Amount",
	"Currency",
	"Message ID",
	"Received",
}

// Build lays out rows in a workbook: a bold header, one line per price and
// column widths fitted to the longest value.
func Build(rows []model.PriceRow) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add sheet")
	}

	widths := make([]int, len(Header))
	track := func(col int, s string) {
		if n := utf8.RuneCountInString(s); n > widths[col] {
			widths[col] = n
		}
	}

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	header := sheet.AddRow()
	for i, name := range Header {
		cell := header.AddCell()
		cell.SetString(name)
		cell.SetStyle(bold)
		track(i, name)
	}

	for _, r := range rows {
		values := record(r)
		row := sheet.AddRow()
		for i, v := range values {
			cell := row.AddCell()
			if i == 7 && r.Amount != nil {
				cell.SetFloat(*r.Amount)
			} else {
				cell.SetString(v)
			}
			track(i, v)
		}
	}

	for i, w := range widths {
		w += 2
		if w < minColWidth {
			w = minColWidth
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		// Column numbers in the file are 1-based.
		sheet.SetColWidth(i+1, i+1, float64(w))
	}
	return f, nil
}

// WriteXLSX saves rows as a workbook at path.
func WriteXLSX(path string, rows []model.PriceRow) error {
	f, err := Build(rows)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func record(r model.PriceRow) []string {
	amount := ""
	if r.Amount != nil {
		amount = strconv.FormatFloat(*r.Amount, 'f', -1, 64)
	}
	received := ""
	if !r.ReceivedTime.IsZero() {
		received = r.ReceivedTime.UTC().Format(time.DateTime)
	}
	return []string{
		strconv.FormatInt(r.PriceID, 10),
		r.LoadingLocation,
		r.UnloadingLocation,
		r.TransportType,
		r.Subtype,
		r.Size,
		r.Value,
		amount,
		r.Currency,
		strconv.FormatInt(r.MessageID, 10),
		received,
	}
}
