package analytics

import (
	"context"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/charts"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

// ChartRenderer turns a series into a base64 encoded PNG.
type ChartRenderer interface {
	Render(kind charts.Kind, series core.Series, title string) (string, error)
}

// Titles names the three charts of a bundle.
type Titles struct {
	Monthly  string
	Category string
	Daily    string
}

// TitlesFor returns the chart titles used for a collection.
func TitlesFor(kind core.Kind) Titles {
	name := kind.Title()
	if kind == core.KindExpense {
		name = "Expenses"
	}
	return Titles{
		Monthly:  "Monthly " + name + " Trend",
		Category: name + " Distribution by Category",
		Daily:    "Daily " + name + " (Last 30 Days)",
	}
}

type chartJob struct {
	kind   charts.Kind
	series core.Series
	title  string
	dst    *string
}

// renderAll draws every job concurrently. A chart that fails to render is
// logged and left empty so the page still shows its tables.
func renderAll(ctx context.Context, renderer ChartRenderer, jobs []chartJob) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentCharts)

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := renderer.Render(job.kind, job.series, job.title)
			if err != nil {
				logger.WarnContext(gctx, "Chart rendering failed",
					"chart", job.kind.String(),
					"title", job.title,
					log.FieldError, err)
				return nil
			}
			*job.dst = img
			return nil
		})
	}
	return g.Wait()
}

// Build computes every aggregate of the collection and renders its charts.
func Build(ctx context.Context, records []core.Record, renderer ChartRenderer, titles Titles) (core.Analytics, error) {
	if len(records) == 0 {
		return core.Analytics{
			MonthlyTotals:  core.Series{},
			CategoryTotals: core.Series{},
			DailyTotals:    core.Series{},
			TopRecords:     []core.Record{},
			Breakdown:      []core.MonthBreakdown{},
		}, nil
	}

	a := core.Analytics{
		MonthlyTotals:  MonthlyTotals(records),
		CategoryTotals: CategoryTotals(records),
		DailyTotals:    DailyLast30(records),
		TopRecords:     TopN(records, TopCount),
		Trends:         PivotByMonthCategory(records),
		Breakdown:      MonthlyBreakdown(records),
	}
	if renderer == nil {
		return a, nil
	}

	err := renderAll(ctx, renderer, []chartJob{
		{charts.Line, a.MonthlyTotals, titles.Monthly, &a.MonthlyChart},
		{charts.Donut, a.CategoryTotals, titles.Category, &a.CategoryChart},
		{charts.Bar, a.DailyTotals, titles.Daily, &a.DailyChart},
	})
	return a, err
}

// BalanceCharts holds the images of the balance page.
type BalanceCharts struct {
	Income  string
	Expense string
	Net     string
}

// BalanceSeries splits a balance into per-month income, expense and net series.
func BalanceSeries(b core.Balance) (income, expense, net core.Series) {
	income = make(core.Series, 0, len(b.Rows))
	expense = make(core.Series, 0, len(b.Rows))
	net = make(core.Series, 0, len(b.Rows))
	for _, row := range b.Rows {
		income = append(income, core.LabeledAmount{Label: row.Month, Amount: row.Income})
		expense = append(expense, core.LabeledAmount{Label: row.Month, Amount: row.Expense})
		net = append(net, core.LabeledAmount{Label: row.Month, Amount: row.Net})
	}
	return income, expense, net
}

// RenderBalance draws the income, expense and net charts of a balance.
func RenderBalance(ctx context.Context, b core.Balance, renderer ChartRenderer) (BalanceCharts, error) {
	var out BalanceCharts
	if renderer == nil || len(b.Rows) == 0 {
		return out, nil
	}

	income, expense, net := BalanceSeries(b)
	err := renderAll(ctx, renderer, []chartJob{
		{charts.Line, income, "Monthly Income", &out.Income},
		{charts.Line, expense, "Monthly Expenses", &out.Expense},
		{charts.Bar, net, "Monthly Net Balance", &out.Net},
	})
	return out, err
}
