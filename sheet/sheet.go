// Package sheet reads the instrument registry and the booking ledger out of
// spreadsheets, either .xlsx workbooks (first sheet) or .csv files.
//
// Both start with a header row. Column names are matched case-insensitively
// and in any order; extra columns are ignored.
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/etnz/depot"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Instrument file columns.
const (
	ColID      = "wkn"
	ColTicker  = "ticker"
	ColName    = "instrument_name"
	ColDefault = "default_value"
)

// Booking file columns.
const (
	ColDate    = "date"
	ColAccount = "bank"
	ColDelta   = "delta"
)

// table is a header-indexed set of records.
type table struct {
	path     string
	columns  map[string]int
	records  [][]string
	date1904 bool
}

// read loads the file at path according to its extension.
func read(path string) (*table, error) {
	var (
		rows     [][]string
		date1904 bool
		err      error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, date1904, err = readXLSX(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet %q, want .xlsx or .csv", path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, depot.Validationf("%s: no header row", path)
	}
	t := &table{path: path, columns: make(map[string]int), records: rows[1:], date1904: date1904}
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, exists := t.columns[h]; !exists && h != "" {
			t.columns[h] = i
		}
	}
	return t, nil
}

func readXLSX(path string) ([][]string, bool, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("cannot open workbook %q: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, false, depot.Validationf("%s: workbook has no sheet", path)
	}
	// raw values keep dates as serial numbers instead of a locale dependent rendering
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, fmt.Errorf("cannot read sheet %q of %q: %w", sheets[0], path, err)
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	return rows, date1904, nil
}

func readCSV(path string) ([][]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	// german exports separate fields with a semicolon
	header, _, _ := bytes.Cut(content, []byte("\n"))
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		r.Comma = ';'
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q: %w", path, err)
	}
	return rows, nil
}

// require fails with a validation error if a column is missing.
func (t *table) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return depot.Validationf("%s: missing column(s) %s", t.path, strings.Join(missing, ", "))
	}
	return nil
}

// cell returns the trimmed value of column in record, "" when the record is short.
func (t *table) cell(record []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseDecimal reads a number, accepting a decimal comma. "" and garbage
// are null.
func parseDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// parseDate reads a date written as text or as a spreadsheet serial number.
func (t *table) parseDate(s string) (depot.Date, error) {
	if s == "" {
		return depot.Date{}, fmt.Errorf("empty date")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		on, err := excelize.ExcelDateToTime(serial, t.date1904)
		if err != nil {
			return depot.Date{}, err
		}
		return depot.DateOf(on), nil
	}
	return depot.ParseDate(s)
}

// LoadRegistry reads the instruments file.
//
// Required columns are wkn, ticker, instrument_name and default_value. An
// unreadable default value is null.
func LoadRegistry(path string) (*depot.Registry, error) {
	t, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColID, ColTicker, ColName, ColDefault); err != nil {
		return nil, err
	}

	instruments := make([]depot.Instrument, 0, len(t.records))
	for i, record := range t.records {
		if blank(record) {
			continue
		}
		in := depot.Instrument{
			ID:     t.cell(record, ColID),
			Ticker: t.cell(record, ColTicker),
			Name:   t.cell(record, ColName),
		}
		in.Default, err = parseDecimal(t.cell(record, ColDefault))
		if err != nil {
			log.Warn().Err(err).Str("file", path).Int("line", i+2).Str("instrument", in.ID).Msg("unreadable default value, ignored")
		}
		if !in.HasTicker() && !in.Default.Valid {
			log.Warn().Str("file", path).Str("instrument", in.ID).Msg("instrument has neither ticker nor default value")
		}
		instruments = append(instruments, in)
	}
	reg, err := depot.NewRegistry(instruments...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("file", path).Int("instruments", reg.Len()).Msg("instruments loaded")
	return reg, nil
}

// LoadBookings reads the raw rows of the bookings file.
//
// Required columns are date, wkn, bank and delta. Unreadable cells are left
// missing so that the row is dropped when building the ledger.
func LoadBookings(path string) ([]depot.BookingRow, error) {
	t, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColDate, ColID, ColAccount, ColDelta); err != nil {
		return nil, err
	}

	rows := make([]depot.BookingRow, 0, len(t.records))
	for i, record := range t.records {
		if blank(record) {
			continue
		}
		r := depot.BookingRow{
			Instrument: t.cell(record, ColID),
			Account:    t.cell(record, ColAccount),
		}
		if r.Date, err = t.parseDate(t.cell(record, ColDate)); err != nil {
			log.Debug().Err(err).Str("file", path).Int("line", i+2).Msg("unreadable date")
		}
		if r.Delta, err = parseDecimal(t.cell(record, ColDelta)); err != nil {
			log.Debug().Err(err).Str("file", path).Int("line", i+2).Msg("unreadable delta")
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// LoadLedger reads the bookings file into a ledger.
func LoadLedger(path string) (*depot.Ledger, error) {
	rows, err := LoadBookings(path)
	if err != nil {
		return nil, err
	}
	l, dropped := depot.NewLedger(rows)
	log.Debug().Str("file", path).Int("rows", len(rows)).Int("dropped", dropped).Int("bookings", l.Len()).Msg("bookings loaded")
	return l, nil
}
