package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
)

// formValues echoes a submission back into the form after a rejection.
type formValues struct {
	Date        string
	Category    string
	Amount      string
	Description string
}

func formFromInput(in core.RecordInput) formValues {
	return formValues{Date: in.Date, Category: in.Category, Amount: in.Amount, Description: in.Description}
}

// recordsPage is the view model of the dashboard and of the collection pages.
type recordsPage struct {
	Title          string
	Active         string
	Kind           core.Kind
	Action         string
	Records        []core.Record
	Total          decimal.Decimal
	CategoryTotals map[string]decimal.Decimal
	Analytics      core.Analytics
	Form           formValues
	Error          string
}

// balancePage is the view model of the income versus expense page.
type balancePage struct {
	Title   string
	Active  string
	Balance core.Balance
	Charts  analytics.BalanceCharts
}

// validationMessage turns a rejected submission into the text shown above
// the form.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a number, for example 12.50"
	case errors.Is(err, core.ErrInvalidDate):
		return "Date must be a valid day in the form YYYY-MM-DD"
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category is required"
	case errors.Is(err, core.ErrCategoryTooLong):
		return "Category is too long (max 64 characters)"
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "Description is too long (max 200 characters)"
	default:
		return "Invalid record"
	}
}

// templateFuncs returns the helpers available to every page.
func templateFuncs(symbol string) template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return core.FormatAmount(d, symbol, core.AmountPlaces)
		},
		// dataURI marks a base64 PNG produced by the chart renderer as a
		// safe image source.
		"dataURI": func(b64 string) template.URL {
			return template.URL("data:image/png;base64," + b64)
		},
		"json": func(v interface{}) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"isNegative": func(d decimal.Decimal) bool {
			return d.IsNegative()
		},
	}
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
