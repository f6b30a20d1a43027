package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// Column names of the record table, in file order.
const (
	ColDate        = "Date"
	ColCategory    = "Category"
	ColAmount      = "Amount"
	ColDescription = "Description"
)

// ErrMalformedTable reports a table whose header or rows cannot be read
// as records.
var ErrMalformedTable = errors.New("malformed record table")

// Header returns the header row written before the records.
func Header() []string {
	return []string{ColDate, ColCategory, ColAmount, ColDescription}
}

// EncodeRows renders the header followed by one row per record.
func EncodeRows(records []core.Record) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, Header())
	for _, r := range records {
		rows = append(rows, []string{r.Date.String(), r.Category, r.Amount.String(), r.Description})
	}
	return rows
}

// DecodeRows parses a header row followed by record rows. Columns are
// matched by name, case-insensitively. Rows may omit a trailing empty
// description; blank rows are skipped. A wrong column count or an
// unparsable date or amount fails the whole table with ErrMalformedTable.
// Field contents are otherwise taken as stored: the limits applied to new
// input do not apply to rows already in the table.
func DecodeRows(rows [][]string) ([]core.Record, error) {
	if len(rows) == 0 {
		return []core.Record{}, nil
	}

	header := rows[0]
	dateIdx := indexOf(header, ColDate)
	catIdx := indexOf(header, ColCategory)
	amountIdx := indexOf(header, ColAmount)
	descIdx := indexOf(header, ColDescription)
	if dateIdx < 0 || catIdx < 0 || amountIdx < 0 || descIdx < 0 {
		return nil, fmt.Errorf("%w: header %v", ErrMalformedTable, header)
	}
	required := maxInt(dateIdx, catIdx, amountIdx) + 1

	records := make([]core.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		if len(row) < required || len(row) > len(header) {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrMalformedTable, line, len(row))
		}

		date, err := core.ParseDate(safeGet(row, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedTable, line, err)
		}
		amount, err := decodeAmount(safeGet(row, amountIdx))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedTable, line, err)
		}
		records = append(records, core.Record{
			Date:        date,
			Category:    strings.TrimSpace(safeGet(row, catIdx)),
			Amount:      amount,
			Description: safeGet(row, descIdx),
		})
	}
	return records, nil
}

// decodeAmount reads a stored amount at full precision. Rounding belongs
// to user input only.
func decodeAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, core.ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	return d, nil
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(v, "\ufeff")), target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func maxInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v > m {
			m = v
		}
	}
	return m
}
