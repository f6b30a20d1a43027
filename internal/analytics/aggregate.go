// Package analytics computes the aggregate views over a record collection.
//
// Every function is pure: the same collection always yields the same result
// and an empty collection yields an empty result rather than an error.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// DailyWindowDays bounds the daily view relative to the latest record date.
const DailyWindowDays = 30

// TopCount is the number of records listed as the largest entries.
const TopCount = 5

// groupSum sums amounts per key, remembering first-seen key order.
type groupSum struct {
	order []string
	sums  map[string]decimal.Decimal
}

func newGroupSum() *groupSum {
	return &groupSum{sums: make(map[string]decimal.Decimal)}
}

func (g *groupSum) add(key string, amount decimal.Decimal) {
	cur, ok := g.sums[key]
	if !ok {
		g.order = append(g.order, key)
		cur = decimal.Zero
	}
	g.sums[key] = cur.Add(amount)
}

func (g *groupSum) series() core.Series {
	out := make(core.Series, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, core.LabeledAmount{Label: k, Amount: g.sums[k]})
	}
	return out
}

func sortByLabel(s core.Series) {
	sort.Slice(s, func(i, j int) bool { return s[i].Label < s[j].Label })
}

// Sum returns the total amount of the collection.
func Sum(records []core.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// MonthlyTotals groups by YYYY-MM and returns the sums in ascending month order.
func MonthlyTotals(records []core.Record) core.Series {
	g := newGroupSum()
	for _, r := range records {
		g.add(r.Date.MonthKey(), r.Amount)
	}
	out := g.series()
	sortByLabel(out)
	return out
}

// CategoryTotals groups by category and orders by descending sum.
// Categories with equal sums keep the order in which they first appear.
func CategoryTotals(records []core.Record) core.Series {
	g := newGroupSum()
	for _, r := range records {
		g.add(r.Category, r.Amount)
	}
	out := g.series()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

// CategoryTotalsMap returns the per-category sums keyed by name.
func CategoryTotalsMap(records []core.Record) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range records {
		cur, ok := out[r.Category]
		if !ok {
			cur = decimal.Zero
		}
		out[r.Category] = cur.Add(r.Amount)
	}
	return out
}

// DailyLast30 sums per day the records dated within DailyWindowDays of the
// latest date present, inclusive, in ascending date order.
func DailyLast30(records []core.Record) core.Series {
	if len(records) == 0 {
		return core.Series{}
	}
	maxDate := records[0].Date.Time
	for _, r := range records[1:] {
		if r.Date.After(maxDate) {
			maxDate = r.Date.Time
		}
	}
	cutoff := maxDate.AddDate(0, 0, -DailyWindowDays)

	g := newGroupSum()
	for _, r := range records {
		if r.Date.Before(cutoff) {
			continue
		}
		g.add(r.Date.String(), r.Amount)
	}
	out := g.series()
	sortByLabel(out)
	return out
}

// TopN returns the n records with the largest amounts. Equal amounts keep
// their original row order.
func TopN(records []core.Record, n int) []core.Record {
	if n <= 0 || len(records) == 0 {
		return []core.Record{}
	}
	sorted := make([]core.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// PivotByMonthCategory builds the month by category matrix of sums.
// Months ascend, categories are sorted by name.
func PivotByMonthCategory(records []core.Record) core.Pivot {
	monthSet := make(map[string]int)
	catSet := make(map[string]int)
	for _, r := range records {
		monthSet[r.Date.MonthKey()] = 0
		catSet[r.Category] = 0
	}
	p := core.Pivot{
		Months:     sortedKeys(monthSet),
		Categories: sortedKeys(catSet),
	}
	for i, m := range p.Months {
		monthSet[m] = i
	}
	for j, c := range p.Categories {
		catSet[c] = j
	}

	p.Cells = make([][]decimal.Decimal, len(p.Months))
	for i := range p.Cells {
		row := make([]decimal.Decimal, len(p.Categories))
		for j := range row {
			row[j] = decimal.Zero
		}
		p.Cells[i] = row
	}
	for _, r := range records {
		i, j := monthSet[r.Date.MonthKey()], catSet[r.Category]
		p.Cells[i][j] = p.Cells[i][j].Add(r.Amount)
	}
	return p
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MonthlyBreakdown returns, per month in chronological order, the month
// total and its category sums in first-seen order within that month.
func MonthlyBreakdown(records []core.Record) []core.MonthBreakdown {
	months := newGroupSum()
	perMonth := make(map[string]*groupSum)
	for _, r := range records {
		key := r.Date.MonthKey()
		months.add(key, r.Amount)
		g, ok := perMonth[key]
		if !ok {
			g = newGroupSum()
			perMonth[key] = g
		}
		g.add(r.Category, r.Amount)
	}

	totals := months.series()
	sortByLabel(totals)
	out := make([]core.MonthBreakdown, 0, len(totals))
	for _, m := range totals {
		out = append(out, core.MonthBreakdown{
			Month:      m.Label,
			Total:      m.Amount,
			Categories: perMonth[m.Label].series(),
		})
	}
	return out
}

// Balance compares income and expense month by month over the union of the
// months present in either collection.
func Balance(income, expense []core.Record) core.Balance {
	in := MonthlyTotals(income)
	out := MonthlyTotals(expense)

	monthSet := make(map[string]int)
	for _, v := range in {
		monthSet[v.Label] = 0
	}
	for _, v := range out {
		monthSet[v.Label] = 0
	}

	b := core.Balance{
		Rows:    make([]core.BalanceRow, 0, len(monthSet)),
		Income:  Sum(income),
		Expense: Sum(expense),
	}
	b.Net = b.Income.Sub(b.Expense)
	for _, m := range sortedKeys(monthSet) {
		i, _ := in.Lookup(m)
		e, _ := out.Lookup(m)
		b.Rows = append(b.Rows, core.BalanceRow{Month: m, Income: i, Expense: e, Net: i.Sub(e)})
	}
	return b
}
