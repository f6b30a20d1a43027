// Package charts draws labeled series as PNG images encoded in base64,
// ready to be embedded in a data:image/png URI.
package charts

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bilancio/internal/core"
)

// Kind selects the chart shape.
type Kind int

const (
	// Line draws a trend across ordered labels (months).
	Line Kind = iota
	// Bar draws one bar per label (days).
	Bar
	// Donut draws the share of each label in the total (categories).
	Donut
)

func (k Kind) String() string {
	switch k {
	case Line:
		return "line"
	case Bar:
		return "bar"
	case Donut:
		return "donut"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var ErrUnknownKind = errors.New("unknown chart kind")

var (
	accent    = drawing.ColorFromHex("6c5ce7")
	textColor = drawing.ColorFromHex("2d3436")
	gridColor = drawing.ColorFromHex("b2bec3")

	palette = []drawing.Color{
		drawing.ColorFromHex("6c5ce7"),
		drawing.ColorFromHex("a363d9"),
		drawing.ColorFromHex("74b9ff"),
		drawing.ColorFromHex("00cec9"),
		drawing.ColorFromHex("55efc4"),
		drawing.ColorFromHex("81ecec"),
		drawing.ColorFromHex("0984e3"),
		drawing.ColorFromHex("a29bfe"),
		drawing.ColorFromHex("ffeaa7"),
		drawing.ColorFromHex("fab1a0"),
	}
)

// Renderer draws charts with a fixed look and currency symbol.
type Renderer struct {
	Symbol string
	Width  int
	Height int
}

// NewRenderer returns a Renderer with default dimensions.
func NewRenderer(symbol string) *Renderer {
	return &Renderer{Symbol: symbol, Width: 1000, Height: 500}
}

// Render draws series as the given kind. An empty series, or a donut with no
// positive slice, yields "" and no error.
func (r *Renderer) Render(kind Kind, series core.Series, title string) (string, error) {
	if len(series) == 0 {
		return "", nil
	}

	var (
		buf bytes.Buffer
		err error
	)
	switch kind {
	case Line:
		err = r.line(series, title).Render(chart.PNG, &buf)
	case Bar:
		err = r.bar(series, title).Render(chart.PNG, &buf)
	case Donut:
		pie, ok := r.donut(series, title)
		if !ok {
			return "", nil
		}
		err = pie.Render(chart.PNG, &buf)
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if err != nil {
		return "", fmt.Errorf("render %s chart: %w", kind, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (r *Renderer) titleStyle() chart.Style {
	return chart.Style{FontSize: 16, FontColor: textColor}
}

func (r *Renderer) moneyTick(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return core.FormatAmount(decimal.NewFromFloat(f), r.Symbol, 0)
}

// valueRange pads the span of values and always includes zero so that
// go-chart never sees an empty range.
func valueRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.1
	if lo < 0 {
		lo -= pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + pad}
}

func (r *Renderer) yAxis(values []float64) chart.YAxis {
	return chart.YAxis{
		Style:          chart.Style{FontSize: 10, FontColor: textColor},
		Range:          valueRange(values),
		ValueFormatter: r.moneyTick,
		GridMajorStyle: chart.Style{StrokeColor: gridColor.WithAlpha(180), StrokeWidth: 1},
	}
}

// line plots one point per label. go-chart derives the x range from the
// ticks, so unlabeled ticks half a step outside the data keep it non-empty
// for a single point, which is drawn as a short flat segment.
func (r *Renderer) line(series core.Series, title string) chart.Chart {
	n := len(series)
	values := series.Values()
	xs := make([]float64, n)
	ticks := make([]chart.Tick, 0, n+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, label := range series.Labels() {
		xs[i] = float64(i)
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: label})
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})
	if n == 1 {
		xs = []float64{-0.25, 0.25}
		values = []float64{values[0], values[0]}
	}

	return chart.Chart{
		Title:      title,
		TitleStyle: r.titleStyle(),
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 40, Bottom: 20}},
		XAxis: chart.XAxis{
			Style: chart.Style{FontSize: 10, FontColor: textColor, TextRotationDegrees: 45},
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Ticks: ticks,
		},
		YAxis: r.yAxis(values),
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeColor: accent,
					StrokeWidth: 3,
					FillColor:   accent.WithAlpha(40),
					DotColor:    drawing.ColorWhite,
					DotWidth:    5,
				},
				XValues: xs,
				YValues: values,
			},
		},
	}
}

func (r *Renderer) bar(series core.Series, title string) chart.BarChart {
	const barWidth, barSpacing = 24, 12

	values := series.Values()
	bars := make([]chart.Value, len(series))
	negative := false
	for i, v := range values {
		negative = negative || v < 0
		bars[i] = chart.Value{
			Label: series[i].Label,
			Value: v,
			Style: chart.Style{FillColor: accent, StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
		}
	}

	width := len(bars)*(barWidth+barSpacing) + 200
	if width < r.Width {
		width = r.Width
	}
	return chart.BarChart{
		Title:        title,
		TitleStyle:   r.titleStyle(),
		Width:        width,
		Height:       r.Height,
		Background:   chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		BarWidth:     barWidth,
		BarSpacing:   barSpacing,
		XAxis:        chart.Style{FontSize: 8, FontColor: textColor, TextRotationDegrees: 45},
		YAxis:        r.yAxis(values),
		UseBaseValue: negative,
		BaseValue:    0,
		Bars:         bars,
	}
}

func (r *Renderer) donut(series core.Series, title string) (chart.PieChart, bool) {
	total := 0.0
	for _, v := range series.Values() {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		return chart.PieChart{}, false
	}

	values := make([]chart.Value, 0, len(series))
	for i, v := range series.Values() {
		if v <= 0 {
			continue
		}
		color := palette[len(values)%len(palette)]
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %.1f%%", series[i].Label, v/total*100),
			Value: v,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
				FontSize:    10,
				FontColor:   textColor,
			},
		})
	}

	return chart.PieChart{
		Title:      title,
		TitleStyle: r.titleStyle(),
		Width:      r.Height,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		Values:     values,
	}, true
}
