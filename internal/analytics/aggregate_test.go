package analytics

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
)

func rec(date, category, amount string) core.Record {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Record{Date: d, Category: category, Amount: decimal.RequireFromString(amount)}
}

func scenario() []core.Record {
	return []core.Record{
		rec("2024-01-05", "Food", "100"),
		rec("2024-01-20", "Food", "50"),
		rec("2024-02-01", "Transport", "75"),
	}
}

func assertSeries(t *testing.T, want []string, got core.Series) {
	t.Helper()
	require.Len(t, got, len(want)/2)
	for i := 0; i < len(want); i += 2 {
		assert.Equal(t, want[i], got[i/2].Label)
		assert.True(t, decimal.RequireFromString(want[i+1]).Equal(got[i/2].Amount),
			"%s: want %s got %s", want[i], want[i+1], got[i/2].Amount)
	}
}

func TestScenarioTotals(t *testing.T) {
	records := scenario()

	assertSeries(t, []string{"2024-01", "150", "2024-02", "75"}, MonthlyTotals(records))
	assertSeries(t, []string{"Food", "150", "Transport", "75"}, CategoryTotals(records))
	assert.True(t, decimal.NewFromInt(225).Equal(Sum(records)))

	m := CategoryTotalsMap(records)
	assert.True(t, decimal.NewFromInt(150).Equal(m["Food"]))
	assert.True(t, decimal.NewFromInt(75).Equal(m["Transport"]))
}

func TestMonthlyTotalsAscendingRegardlessOfRowOrder(t *testing.T) {
	records := []core.Record{
		rec("2024-03-01", "A", "1"),
		rec("2023-12-31", "A", "2"),
		rec("2024-01-15", "A", "3"),
	}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-03"}, MonthlyTotals(records).Labels())
}

func TestCategoryTotalsTiesKeepFirstSeenOrder(t *testing.T) {
	records := []core.Record{
		rec("2024-01-01", "Rent", "10"),
		rec("2024-01-02", "Books", "10"),
		rec("2024-01-03", "Fuel", "30"),
	}
	assert.Equal(t, []string{"Fuel", "Rent", "Books"}, CategoryTotals(records).Labels())
}

func TestCategorySumEqualsTotal(t *testing.T) {
	var records []core.Record
	cats := []string{"Food", "Rent", "Fun", "Travel"}
	for i := 0; i < 40; i++ {
		amount := fmt.Sprintf("%d.%02d", (i*37)%500-100, (i*13)%100)
		records = append(records, rec(fmt.Sprintf("2024-%02d-%02d", i%12+1, i%28+1), cats[i%len(cats)], amount))
	}
	assert.True(t, Sum(records).Equal(CategoryTotals(records).Total()))
	assert.True(t, Sum(records).Equal(MonthlyTotals(records).Total()))
}

func TestDailyLast30Window(t *testing.T) {
	records := []core.Record{
		rec("2024-03-31", "A", "5"),
		rec("2024-03-01", "A", "7"), // exactly 30 days before the latest date
		rec("2024-02-29", "A", "9"), // 31 days before
		rec("2024-03-31", "B", "1"),
		rec("2024-03-15", "B", "2"),
	}
	got := DailyLast30(records)
	assertSeries(t, []string{"2024-03-01", "7", "2024-03-15", "2", "2024-03-31", "6"}, got)

	latest := records[0].Date.Time
	for _, label := range got.Labels() {
		d, err := core.ParseDate(label)
		require.NoError(t, err)
		assert.False(t, d.Before(latest.AddDate(0, 0, -DailyWindowDays)))
	}
}

func TestTopN(t *testing.T) {
	records := []core.Record{
		rec("2024-01-01", "A", "10"),
		rec("2024-01-02", "B", "90"),
		rec("2024-01-03", "C", "-5"),
		rec("2024-01-04", "D", "90"),
		rec("2024-01-05", "E", "40"),
		rec("2024-01-06", "F", "1"),
		rec("2024-01-07", "G", "60"),
	}

	top := TopN(records, TopCount)
	require.Len(t, top, 5)
	assert.Equal(t, "B", top[0].Category, "ties keep row order")
	assert.Equal(t, "D", top[1].Category)

	minTop := top[len(top)-1].Amount
	for _, r := range records {
		included := false
		for _, tr := range top {
			if tr.Equal(r) {
				included = true
			}
		}
		if !included {
			assert.True(t, minTop.GreaterThanOrEqual(r.Amount))
		}
	}

	assert.Len(t, TopN(records[:2], 5), 2)
	assert.Empty(t, TopN(records, 0))
	assert.Empty(t, TopN(records, -1))
	assert.Equal(t, "A", records[0].Category, "input is not reordered")
}

func TestPivotByMonthCategory(t *testing.T) {
	p := PivotByMonthCategory(scenario())

	assert.Equal(t, []string{"2024-01", "2024-02"}, p.Months)
	assert.Equal(t, []string{"Food", "Transport"}, p.Categories)
	assert.True(t, decimal.NewFromInt(150).Equal(p.Value("2024-01", "Food")))
	assert.True(t, decimal.Zero.Equal(p.Value("2024-01", "Transport")))
	assert.True(t, decimal.Zero.Equal(p.Value("2024-02", "Food")))
	assert.True(t, decimal.NewFromInt(75).Equal(p.Cells[1][1]))
	assert.True(t, decimal.Zero.Equal(p.Value("1999-01", "Food")))
}

func TestMonthlyBreakdownChronological(t *testing.T) {
	records := []core.Record{
		rec("2024-02-10", "Transport", "75"),
		rec("2024-01-05", "Food", "100"),
		rec("2024-02-11", "Food", "5"),
		rec("2024-01-20", "Rent", "50"),
	}
	got := MonthlyBreakdown(records)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-01", got[0].Month)
	assert.True(t, decimal.NewFromInt(150).Equal(got[0].Total))
	assert.Equal(t, []string{"Food", "Rent"}, got[0].Categories.Labels())

	assert.Equal(t, "2024-02", got[1].Month)
	assert.Equal(t, []string{"Transport", "Food"}, got[1].Categories.Labels())
	assert.True(t, got[1].Total.Equal(got[1].Categories.Total()))
}

func TestBalance(t *testing.T) {
	income := []core.Record{
		rec("2024-01-31", "Salary", "1000"),
		rec("2024-03-31", "Salary", "1000"),
	}
	expense := []core.Record{
		rec("2024-01-05", "Food", "300"),
		rec("2024-02-05", "Food", "200"),
	}

	b := Balance(income, expense)
	require.Len(t, b.Rows, 3)
	assert.Equal(t, "2024-01", b.Rows[0].Month)
	assert.True(t, decimal.NewFromInt(700).Equal(b.Rows[0].Net))
	assert.True(t, decimal.NewFromInt(-200).Equal(b.Rows[1].Net))
	assert.True(t, decimal.Zero.Equal(b.Rows[1].Income))
	assert.True(t, decimal.NewFromInt(1000).Equal(b.Rows[2].Net))
	for _, row := range b.Rows {
		assert.True(t, row.Income.Sub(row.Expense).Equal(row.Net))
	}
	assert.True(t, decimal.NewFromInt(1500).Equal(b.Net))

	inc, exp, net := BalanceSeries(b)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, net.Labels())
	assert.True(t, inc.Total().Equal(b.Income))
	assert.True(t, exp.Total().Equal(b.Expense))
}

func TestEmptyInputs(t *testing.T) {
	assert.Empty(t, MonthlyTotals(nil))
	assert.Empty(t, CategoryTotals(nil))
	assert.Empty(t, CategoryTotalsMap(nil))
	assert.Empty(t, DailyLast30(nil))
	assert.Empty(t, TopN(nil, 5))
	assert.Empty(t, MonthlyBreakdown(nil))
	assert.True(t, Sum(nil).IsZero())

	p := PivotByMonthCategory(nil)
	assert.Empty(t, p.Months)
	assert.Empty(t, p.Cells)

	b := Balance(nil, nil)
	assert.Empty(t, b.Rows)
	assert.True(t, b.Net.IsZero())
}
