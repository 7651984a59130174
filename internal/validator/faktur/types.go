package faktur

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fakturscan/internal/domain"
)

// Invoice is the view of a parsed Faktur Pajak that the rules run against.
type Invoice struct {
	TypeCode   string
	Items      []domain.LineItem
	Summary    domain.InvoiceSummary
	Rate       decimal.Decimal
	RateSource domain.RateSource

	// TextOnly is set when the summary was read from text lines instead of
	// being computed from table items. SummaryFound then says which of the
	// three money totals were actually located.
	TextOnly     bool
	SummaryFound domain.MoneyFields[bool]

	// Declared holds totals printed below the table, when found.
	Declared map[domain.ColumnLabel]decimal.Decimal

	Tolerance        Tolerance
	LowOCRConfidence float64
}

// ValidationResult is the outcome of a single check.
type ValidationResult struct {
	Passed bool
	Kind   domain.IssueKind
	// Line is the 1-based line number the result refers to; zero means invoice level.
	Line          int
	FieldPath     string
	ExpectedValue string
	ActualValue   string
	Message       string
}

// Tolerance bounds how far a computed amount may drift from the expected one:
// the larger of Ratio times the expected value and MinAbs.
type Tolerance struct {
	Ratio  decimal.Decimal
	MinAbs decimal.Decimal
}

// DefaultTolerance is 2% with a floor of Rp 1,00.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Ratio:  decimal.RequireFromString("0.02"),
		MinAbs: decimal.NewFromInt(1),
	}
}

// NewTolerance builds a Tolerance from a ratio and a floor in minor units (sen).
func NewTolerance(ratio float64, minMinorUnits int64) Tolerance {
	return Tolerance{
		Ratio:  decimal.NewFromFloat(ratio),
		MinAbs: decimal.New(minMinorUnits, -2),
	}
}

// Allowed returns the permitted absolute deviation around expected.
func (t Tolerance) Allowed(expected decimal.Decimal) decimal.Decimal {
	rel := expected.Abs().Mul(t.Ratio)
	if rel.GreaterThan(t.MinAbs) {
		return rel
	}
	return t.MinAbs
}

// Within reports whether actual is close enough to expected.
func (t Tolerance) Within(actual, expected decimal.Decimal) bool {
	return actual.Sub(expected).Abs().LessThanOrEqual(t.Allowed(expected))
}

func itemPath(line int, field string) string {
	return fmt.Sprintf("items[%d].%s", line, field)
}
