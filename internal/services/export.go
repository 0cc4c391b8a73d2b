package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

// FormatCSV writes view as comma-separated text: a header of the record
// columns followed by one line per row. With bom set the output starts with
// a UTF-8 byte order mark so spreadsheet programs detect the encoding.
func FormatCSV(view *dataset.Table, bom bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := make([]string, len(dataset.Columns))
	for i, c := range dataset.Columns {
		header[i] = string(c)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for tx := range view.All() {
		if err := w.Write(exportRecord(tx)); err != nil {
			return nil, fmt.Errorf("write row %s: %w", tx.OrderID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	if bom {
		return unicode.UTF8BOM.NewEncoder().Bytes(buf.Bytes())
	}
	return buf.Bytes(), nil
}

func exportRecord(tx models.Transaction) []string {
	return []string{
		tx.OrderID,
		tx.Branch,
		tx.City,
		tx.CustomerType,
		tx.Gender,
		tx.ProductCategory,
		tx.UnitPrice.String(),
		strconv.Itoa(tx.Quantity),
		tx.TotalPrice.String(),
		tx.SaleDate.Format(dateLayout),
		tx.SaleTime,
		strconv.FormatFloat(tx.Rating, 'f', -1, 64),
	}
}

// ExportFilename suggests "<name>_<start>_<end>.csv" with both dates as
// YYYYMMDD.
func ExportFilename(name string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_%s.csv", name, start.Format("20060102"), end.Format("20060102"))
}

// ExportRange is the date range named in the export filename: the active
// selection, with the span of the base table standing in for an open bound.
func ExportRange(sel Selections, domains dataset.Domains) (time.Time, time.Time) {
	start, end := domains.MinDate, domains.MaxDate
	if r := sel.DateRange; r != nil {
		if !r.Start.IsZero() {
			start = r.Start
		}
		if !r.End.Equal(OpenEnd) {
			end = r.End
		}
	}
	return start, end
}
