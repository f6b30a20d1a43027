package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
)

func sampleRecords() []core.Record {
	return []core.Record{
		{Date: core.NewDate(2024, 1, 5), Category: "Food", Amount: decimal.NewFromInt(100)},
		{Date: core.NewDate(2024, 1, 20), Category: "Food", Amount: decimal.RequireFromString("50.25"), Description: "dinner, with \"friends\""},
		{Date: core.NewDate(2024, 2, 1), Category: "Transport", Amount: decimal.NewFromInt(-75)},
	}
}

func TestEncodeDecodeRows(t *testing.T) {
	records := sampleRecords()
	rows := EncodeRows(records)
	require.Len(t, rows, 4)
	assert.Equal(t, Header(), rows[0])
	assert.Equal(t, []string{"2024-01-20", "Food", "50.25", "dinner, with \"friends\""}, rows[2])

	got, err := DecodeRows(rows)
	require.NoError(t, err)
	require.Len(t, got, len(records))
	for i := range records {
		assert.True(t, records[i].Equal(got[i]), "row %d: %+v != %+v", i, records[i], got[i])
	}
}

func TestDecodeRowsTolerance(t *testing.T) {
	rows := [][]string{
		{"\ufeffdate", "CATEGORY", "amount", "Description"},
		{"2024-01-05", "Food", "100.0"},
		{"", "", "", ""},
		{"2024-01-06", "Food", "1,5", "note"},
	}
	got, err := DecodeRows(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "", got[0].Description)
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("1.5")))
}

func TestDecodeRowsMalformed(t *testing.T) {
	cases := map[string][][]string{
		"missing column": {{"Date", "Category", "Amount"}, {"2024-01-05", "Food", "1"}},
		"bad date":       {Header(), {"05/01/2024", "Food", "1", ""}},
		"bad amount":     {Header(), {"2024-01-05", "Food", "abc", ""}},
		"too many cols":  {Header(), {"2024-01-05", "Food", "1", "", "extra"}},
		"too few cols":   {Header(), {"2024-01-05", "Food"}},
	}
	for name, rows := range cases {
		_, err := DecodeRows(rows)
		assert.True(t, errors.Is(err, ErrMalformedTable), "%s: got %v", name, err)
	}
}

func TestDecodeRowsKeepsStoredContent(t *testing.T) {
	long := strings.Repeat("x", 201)
	rows := [][]string{
		Header(),
		{"2024-01-05", "Food", "100", long},
		{"2024-01-06", "", "20", ""},
		{"2024-01-07", "Rent", "1.005", ""},
	}
	got, err := DecodeRows(rows)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, long, got[0].Description)
	assert.Equal(t, "", got[1].Category)
	assert.Equal(t, "1.005", got[2].Amount.String())
}

func TestEncodeDecodeKeepsPrecision(t *testing.T) {
	records := []core.Record{
		{Date: core.NewDate(2024, 3, 1), Category: "Fuel", Amount: decimal.RequireFromString("1.005")},
		{Date: core.NewDate(2024, 3, 2), Category: "Fuel", Amount: decimal.RequireFromString("-0.12345")},
	}
	got, err := DecodeRows(EncodeRows(records))
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range records {
		assert.True(t, records[i].Equal(got[i]), "row %d: %s != %s", i, records[i].Amount, got[i].Amount)
	}
}

func TestDecodeRowsEmpty(t *testing.T) {
	got, err := DecodeRows(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = DecodeRows([][]string{Header()})
	require.NoError(t, err)
	assert.Empty(t, got)
}
