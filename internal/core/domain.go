package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// DateLayout is the on-disk and form representation of a record date.
const DateLayout = "2006-01-02"

// MonthLayout formats the year-month grouping key.
const MonthLayout = "2006-01"

const (
	maxCategoryLen    = 64
	maxDescriptionLen = 200
)

type (
	// Kind names one of the independent record collections.
	Kind string

	Date struct {
		time.Time
	}

	// Record is one income or expense entry. Amount is signed.
	Record struct {
		Date        Date
		Category    string
		Amount      decimal.Decimal
		Description string
	}

	// RecordInput carries the raw form values of a record before parsing.
	RecordInput struct {
		Date        string
		Category    string
		Amount      string
		Description string
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
	ErrCategoryTooLong    = errors.New("category too long (max 64 characters)")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrUnknownKind        = errors.New("unknown record kind")
)

var validationErrors = []error{ErrInvalidDate, ErrInvalidAmount, ErrEmptyCategory, ErrCategoryTooLong, ErrDescriptionTooLong}

// Kinds returns every record collection in display order.
func Kinds() []Kind {
	return []Kind{KindIncome, KindExpense}
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindIncome, KindExpense:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// Title returns the human label used in page headings.
func (k Kind) Title() string {
	switch k {
	case KindIncome:
		return "Income"
	case KindExpense:
		return "Expense"
	default:
		return string(k)
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM group the date belongs to.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	category := strings.TrimSpace(r.Category)
	if category == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return ErrCategoryTooLong
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// Equal reports whether two records hold the same values.
func (r Record) Equal(o Record) bool {
	return r.Date.Equal(o.Date.Time) &&
		r.Category == o.Category &&
		r.Amount.Equal(o.Amount) &&
		r.Description == o.Description
}

// NewRecord parses raw form values into a validated Record.
// The amount is checked first so that a non-numeric value is always
// reported as ErrInvalidAmount.
func NewRecord(in RecordInput) (Record, error) {
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Record{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Record{}, err
	}
	r := Record{
		Date:        date,
		Category:    strings.TrimSpace(in.Category),
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// IsValidationError reports whether err stems from bad user input.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
