package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

// DataFormatError reports a value that does not have the shape its column
// requires. It is raised once a source has been read successfully and is
// never converted into the synthetic fallback.
type DataFormatError struct {
	Row    int
	Column Column
	Value  string
	Err    error
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("data format: row %d, column %s: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

var (
	errEmptyValue   = errors.New("empty value")
	errHourRange    = errors.New("hour out of range")
	errNegativeTime = errors.New("negative time of day")
)

// hourEpsilon absorbs binary float error in fractional-day values, so that
// 10/24 stored as 0.41666666666666663 still lands on hour 10.
const hourEpsilon = 1e-9

// maxDaySerial is the day after 9999-12-31 in the Excel serial calendar.
// Larger fractional-day values are not times.
const maxDaySerial = 2958466

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04:05 PM"}

// ParseHour extracts the hour of day from a time-of-day value given either
// as clock text ("10:29") or as a fraction of a day ("0.85625"). For a
// fraction the hour is floor(v*24) mod 24, so full date-time serials work too.
func ParseHour(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errEmptyValue
	}

	if strings.Contains(s, ":") {
		var lastErr error
		for _, layout := range clockLayouts {
			t, err := time.Parse(layout, s)
			if err == nil {
				return t.Hour(), nil
			}
			lastErr = err
		}
		return 0, lastErr
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errHourRange
	}
	if v < 0 {
		return 0, errNegativeTime
	}
	if v >= maxDaySerial {
		return 0, errHourRange
	}
	return int(math.Mod(math.Floor(v*24+hourEpsilon), 24)), nil
}

// Enrich attaches the derived calendar fields to a copy of rows and returns
// the resulting base table together with its discovered domains. Rows are
// numbered from 1 in any DataFormatError.
func Enrich(rows []models.Transaction, schema Schema) (*Table, error) {
	out := make([]models.Transaction, len(rows))
	for i, tx := range rows {
		if tx.SaleDate.IsZero() {
			return nil, &DataFormatError{Row: i + 1, Column: ColSaleDate, Err: errEmptyValue}
		}
		hour, err := ParseHour(tx.SaleTime)
		if err != nil {
			return nil, &DataFormatError{Row: i + 1, Column: ColSaleTime, Value: tx.SaleTime, Err: err}
		}

		tx.MonthNumber = int(tx.SaleDate.Month())
		tx.MonthName = tx.SaleDate.Month().String()
		tx.WeekdayName = tx.SaleDate.Weekday().String()
		tx.HourOfDay = hour
		out[i] = tx
	}

	domains := discoverDomains(out)
	if !schema.HasCity {
		domains.Cities = nil
	}
	return &Table{rows: out, schema: schema, domains: domains}, nil
}
