package core

import "github.com/shopspring/decimal"

// LabeledAmount is an amount aggregated under a label (month, day or category).
type LabeledAmount struct {
	Label  string
	Amount decimal.Decimal
}

// Series is an ordered list of labeled amounts, as drawn by one chart.
type Series []LabeledAmount

// Labels returns the labels in order.
func (s Series) Labels() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Label
	}
	return out
}

// Values returns the amounts as floats for chart and JSON consumers.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v.Amount.InexactFloat64()
	}
	return out
}

func (s Series) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		total = total.Add(v.Amount)
	}
	return total
}

// Lookup returns the amount stored under label.
func (s Series) Lookup(label string) (decimal.Decimal, bool) {
	for _, v := range s {
		if v.Label == label {
			return v.Amount, true
		}
	}
	return decimal.Zero, false
}

// MonthBreakdown is the total of one month with its per-category split.
type MonthBreakdown struct {
	Month      string
	Total      decimal.Decimal
	Categories Series
}

// Pivot is a month by category matrix of sums. Cells[i][j] holds the sum
// for Months[i] and Categories[j]; missing combinations are zero.
type Pivot struct {
	Months     []string
	Categories []string
	Cells      [][]decimal.Decimal
}

// Value returns the cell for a month and category, zero when absent.
func (p Pivot) Value(month, category string) decimal.Decimal {
	for i, m := range p.Months {
		if m != month {
			continue
		}
		for j, c := range p.Categories {
			if c == category {
				return p.Cells[i][j]
			}
		}
	}
	return decimal.Zero
}

// BalanceRow compares income and expense for one month.
type BalanceRow struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Balance is the income versus expense view across all months.
type Balance struct {
	Rows    []BalanceRow
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Analytics is everything a page shows about one collection. Chart fields
// hold base64 PNG data and are empty when there is nothing to draw.
type Analytics struct {
	MonthlyTotals  Series
	CategoryTotals Series
	DailyTotals    Series
	TopRecords     []Record
	Trends         Pivot
	Breakdown      []MonthBreakdown

	MonthlyChart  string
	CategoryChart string
	DailyChart    string
}

// Empty reports whether the bundle was built from no records.
func (a Analytics) Empty() bool {
	return len(a.MonthlyTotals) == 0
}
