package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and form format for calendar dates.
const DateLayout = "2006-01-02"

const maxDescriptionLength = 200

// Canonical categories. Any string is accepted as a category; these are the
// ones offered by the forms and used by the gross profit calculation.
const (
	CategoryFixedCost    = "fixed-cost"
	CategoryVariableCost = "variable-cost"
	CategoryGrossIncome  = "gross-income"
	CategoryNetIncome    = "net-income"
)

const (
	KindIncome Kind = "income"
	KindCost   Kind = "cost"
)

type (
	// Kind selects one of the two collections.
	Kind string

	Date struct {
		time.Time
	}

	// Record is a single income or cost entry.
	Record struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}
)

var (
	ErrInvalidKind        = errors.New("invalid record kind")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
)

// ParseKind accepts both the singular kind and its collection name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes":
		return KindIncome, nil
	case "cost", "costs":
		return KindCost, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// StorageKey is the fixed key the collection is checkpointed under.
func (k Kind) StorageKey() string {
	switch k {
	case KindIncome:
		return "incomes"
	case KindCost:
		return "costs"
	default:
		return ""
	}
}

func (k Kind) IsValid() bool {
	return k == KindIncome || k == KindCost
}

// Categories returns the canonical categories offered for the kind.
func (k Kind) Categories() []string {
	switch k {
	case KindIncome:
		return []string{CategoryGrossIncome, CategoryNetIncome}
	case KindCost:
		return []string{CategoryFixedCost, CategoryVariableCost}
	default:
		return nil
	}
}

func (k Kind) String() string {
	return string(k)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (used for optional bounds)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Compare orders dates by calendar day only.
func (d Date) Compare(o Date) int {
	ay, am, ad := d.Date()
	by, bm, bd := o.Date()
	switch {
	case ay != by:
		return cmpInt(ay, by)
	case am != bm:
		return cmpInt(int(am), int(bm))
	default:
		return cmpInt(ad, bd)
	}
}

// InMonth reports whether the date falls in the given calendar month.
func (d Date) InMonth(year int, month time.Month) bool {
	return !d.IsZero() && d.Year() == year && d.Month() == month
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Validate checks a record at the form boundary. The aggregator never calls it.
func (r Record) Validate() error {
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// legacyCategories maps labels used by the first version of the app.
var legacyCategories = map[string]string{
	"fijo":           CategoryFixedCost,
	"costo fijo":     CategoryFixedCost,
	"variable":       CategoryVariableCost,
	"costo variable": CategoryVariableCost,
	"ingreso bruto":  CategoryGrossIncome,
	"ingreso neto":   CategoryNetIncome,
}

// NormalizeCategory maps legacy labels onto the canonical set and returns
// anything else unchanged.
func NormalizeCategory(s string) string {
	if c, ok := legacyCategories[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return s
}
