package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"sales-dashboard/internal/models"
)

var (
	errNoHeader    = errors.New("no header row with the required columns")
	errNoRows      = errors.New("no data rows")
	errNonPositive = errors.New("must be positive")
	errRatingRange = fmt.Errorf("rating must be between %d and %d", minRating, maxRating)
)

const (
	minRating = 1
	maxRating = 10
)

// headerAliases maps the localized workbook headings and the export
// headings to columns.
var headerAliases = map[string]Column{
	"订单号":  ColOrderID,
	"分店":   ColBranch,
	"城市":   ColCity,
	"顾客类型": ColCustomerType,
	"性别":   ColGender,
	"产品类型": ColProductCategory,
	"单价":   ColUnitPrice,
	"数量":   ColQuantity,
	"总价":   ColTotalPrice,
	"日期":   ColSaleDate,
	"时间":   ColSaleTime,
	"评分":   ColRating,
}

func init() {
	for _, c := range Columns {
		headerAliases[string(c)] = c
	}
}

func isRequired(c Column) bool {
	return c != ColCity
}

// ReadCSV reads delimited text into a grid of cells. UTF-8 and UTF-16 input
// with a byte order mark is decoded accordingly; other input that is not
// valid UTF-8 is treated as GB18030, the default of Chinese-locale Excel.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var fallback transform.Transformer = unicode.UTF8.NewDecoder()
	if !utf8.Valid(data) {
		fallback = simplifiedchinese.GB18030.NewDecoder()
	}
	decoded := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(fallback))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	grid, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return grid, nil
}

// readWorkbook returns the raw cell values of one sheet. Raw values keep
// dates and times as serial numbers instead of display strings.
func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return grid, nil
}

// findHeader looks for the header row among the first maxSkip+1 rows, so a
// leading metadata row is skipped when present.
func findHeader(grid [][]string, maxSkip int) (int, map[Column]int, error) {
	for i := 0; i < len(grid) && i <= maxSkip; i++ {
		index := make(map[Column]int)
		for j, cell := range grid[i] {
			if c, ok := headerAliases[strings.TrimSpace(cell)]; ok {
				if _, dup := index[c]; !dup {
					index[c] = j
				}
			}
		}

		complete := true
		for _, c := range Columns {
			if _, ok := index[c]; !ok && isRequired(c) {
				complete = false
				break
			}
		}
		if complete {
			return i, index, nil
		}
	}
	return 0, nil, errNoHeader
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseRecords converts the rows below the header into transactions.
// Categorical values are kept verbatim. Row numbers in errors are 1-based
// positions in the source grid.
func parseRecords(grid [][]string, headerRow int, index map[Column]int) ([]models.Transaction, Schema, error) {
	_, hasCity := index[ColCity]
	schema := Schema{HasCity: hasCity}

	var rows []models.Transaction
	for i := headerRow + 1; i < len(grid); i++ {
		row := grid[i]
		if blank(row) {
			continue
		}
		cell := func(c Column) string {
			j, ok := index[c]
			if !ok || j >= len(row) {
				return ""
			}
			return row[j]
		}
		fail := func(c Column, err error) error {
			return &DataFormatError{Row: i + 1, Column: c, Value: cell(c), Err: err}
		}

		tx := models.Transaction{
			OrderID:         cell(ColOrderID),
			Branch:          cell(ColBranch),
			City:            cell(ColCity),
			CustomerType:    cell(ColCustomerType),
			Gender:          cell(ColGender),
			ProductCategory: cell(ColProductCategory),
			SaleTime:        strings.TrimSpace(cell(ColSaleTime)),
		}

		var err error
		if tx.UnitPrice, err = parseDecimal(cell(ColUnitPrice)); err != nil {
			return nil, schema, fail(ColUnitPrice, err)
		}
		if tx.Quantity, err = parseQuantity(cell(ColQuantity)); err != nil {
			return nil, schema, fail(ColQuantity, err)
		}
		if tx.Quantity <= 0 {
			return nil, schema, fail(ColQuantity, errNonPositive)
		}
		if tx.TotalPrice, err = parseDecimal(cell(ColTotalPrice)); err != nil {
			return nil, schema, fail(ColTotalPrice, err)
		}
		if tx.Rating, err = parseRating(cell(ColRating)); err != nil {
			return nil, schema, fail(ColRating, err)
		}
		if tx.SaleDate, err = ParseDate(cell(ColSaleDate)); err != nil {
			return nil, schema, fail(ColSaleDate, err)
		}
		if _, err = ParseHour(tx.SaleTime); err != nil {
			return nil, schema, fail(ColSaleTime, err)
		}

		rows = append(rows, tx)
	}

	if len(rows) == 0 {
		return nil, schema, errNoRows
	}
	return rows, schema, nil
}

// parseDecimal reads a money measure, which must be positive.
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, errEmptyValue
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, errNonPositive
	}
	return d, nil
}

func parseRating(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < minRating || v > maxRating {
		return 0, errRatingRange
	}
	return v, nil
}

func parseQuantity(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errEmptyValue
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// Workbooks sometimes store integers as "3.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(f), nil
}

var dateLayouts = []string{
	"1/2/06",
	"1/2/2006",
	"2006-01-02",
	"2006-1-2",
	"2006/1/2",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts the workbook's month/day/year text, ISO dates and Excel
// serial day numbers, and returns the calendar date at UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errEmptyValue
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	return truncateDay(t), nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
