package validator

import (
	"math"

	"github.com/shopspring/decimal"

	"fakturscan/internal/domain"
	"fakturscan/internal/validator/faktur"
)

// Penalties subtracted from a confidence score per finding.
const (
	PenaltyMalformed = 0.15
	PenaltyMissing   = 0.20
	PenaltyWarning   = 0.05
	PenaltyError     = 0.25
	PenaltyCritical  = 0.10
	PenaltyHeuristic = 0.10
)

// Options tunes tolerance, scoring and disposition.
type Options struct {
	Tolerance        faktur.Tolerance
	ApproveThreshold float64
	LowOCRConfidence float64
}

// DefaultOptions returns the standard validation settings.
func DefaultOptions() Options {
	return Options{
		Tolerance:        faktur.DefaultTolerance(),
		ApproveThreshold: 0.95,
		LowOCRConfidence: 0.5,
	}
}

// Input is everything the engine needs to judge one parse.
type Input struct {
	TypeCode string
	Items    []domain.LineItem
	// TextSummary is set in text-only mode; SummaryFound says which totals were located.
	TextSummary  *domain.InvoiceSummary
	SummaryFound domain.MoneyFields[bool]
	Declared     map[domain.ColumnLabel]decimal.Decimal

	Source         domain.LayoutSource
	HeaderComplete bool
	// Findings raised upstream, such as malformed numbers.
	Findings []domain.Finding
}

// Outcome is the engine's verdict.
type Outcome struct {
	Items      []domain.LineItem
	Summary    domain.InvoiceSummary
	RateSource domain.RateSource
	Findings   []domain.Finding
	IsValid    bool
	Confidence float64
	Status     domain.ParseStatus
}

// Engine runs swap correction, rate detection and every registered rule,
// then scores and classifies the result. It holds no per-call state.
type Engine struct {
	registry *Registry
	opts     Options
}

// NewEngine creates a new validation engine.
func NewEngine(registry *Registry, opts Options) *Engine {
	return &Engine{registry: registry, opts: opts}
}

// Evaluate validates in without modifying it.
func (e *Engine) Evaluate(in Input) *Outcome {
	items := cloneItems(in.Items)
	findings := append([]domain.Finding(nil), in.Findings...)
	textOnly := in.TextSummary != nil

	var summary domain.InvoiceSummary
	if textOnly {
		summary = *in.TextSummary
		if f, ok := faktur.CorrectSummarySwap(&summary); ok {
			findings = append(findings, f)
		}
	} else {
		findings = append(findings, faktur.CorrectSwaps(items)...)
		summary = faktur.Summarize(items)
		if len(items) == 0 {
			findings = append(findings, domain.Finding{
				Kind:     domain.IssueMissingField,
				Severity: domain.ValidationSeverityWarning,
				Field:    "items",
				Message:  "no line items found in the table",
			})
		}
	}

	rate, rateSource := faktur.DetectTaxRate(summary.DPP, summary.PPN, in.TypeCode)
	summary.DetectedTaxRate = rate

	inv := &faktur.Invoice{
		TypeCode:         in.TypeCode,
		Items:            items,
		Summary:          summary,
		Rate:             rate,
		RateSource:       rateSource,
		TextOnly:         textOnly,
		SummaryFound:     in.SummaryFound,
		Declared:         in.Declared,
		Tolerance:        e.opts.Tolerance,
		LowOCRConfidence: e.opts.LowOCRConfidence,
	}
	for _, v := range e.registry.All() {
		for _, r := range v.Validate(inv) {
			if r.Passed {
				continue
			}
			findings = append(findings, domain.Finding{
				Kind:     r.Kind,
				Severity: v.Severity(),
				Line:     r.Line,
				Field:    r.FieldPath,
				Expected: r.ExpectedValue,
				Actual:   r.ActualValue,
				Message:  r.Message,
			})
		}
	}

	out := &Outcome{
		Items:      items,
		Summary:    summary,
		RateSource: rateSource,
		Findings:   findings,
		IsValid:    true,
	}
	e.score(out, in, textOnly)
	return out
}

func (e *Engine) score(out *Outcome, in Input, textOnly bool) {
	byLine := make(map[int]int, len(out.Items))
	for i := range out.Items {
		byLine[out.Items[i].LineNo] = i
	}

	rowPenalty := make([]float64, len(out.Items))
	invoicePenalty := 0.0
	reconFailed := false
	for _, f := range out.Findings {
		if f.Severity == domain.ValidationSeverityError {
			out.IsValid = false
		}
		if f.Kind == domain.IssueTotalsMismatch {
			reconFailed = true
		}
		idx, isRow := byLine[f.Line]
		if f.Line > 0 && isRow {
			rowPenalty[idx] += Penalty(f)
			out.Items[idx].Notes = append(out.Items[idx].Notes, f.String())
			continue
		}
		invoicePenalty += Penalty(f)
	}
	if in.Source == domain.SourceHeuristic {
		invoicePenalty += PenaltyHeuristic
	}

	allRowsConfident := true
	base := 1.0
	for i := range out.Items {
		it := &out.Items[i]
		present := float64(it.PresentCount()) / float64(len(domain.MoneyColumns))
		it.RowConfidence = roundScore(clamp((1 - rowPenalty[i]) * present))
		base = math.Min(base, it.RowConfidence)
		if it.RowConfidence < e.opts.ApproveThreshold {
			allRowsConfident = false
		}
	}

	score := base - invoicePenalty
	if textOnly {
		found := 0
		for _, label := range domain.MoneyColumns {
			if in.SummaryFound.Get(label) {
				found++
			}
		}
		score *= float64(found) / float64(len(domain.MoneyColumns))
	}
	out.Confidence = roundScore(clamp(score))

	approved := out.IsValid &&
		in.HeaderComplete &&
		!reconFailed &&
		allRowsConfident &&
		out.Confidence >= e.opts.ApproveThreshold
	if approved {
		out.Status = domain.StatusApproved
	} else {
		out.Status = domain.StatusNeedsReview
	}
}

// Penalty returns the confidence deduction for a finding.
func Penalty(f domain.Finding) float64 {
	switch f.Kind {
	case domain.IssueMalformedNumber:
		return PenaltyMalformed
	case domain.IssueMissingField:
		return PenaltyMissing
	}
	switch f.Severity {
	case domain.ValidationSeverityCritical:
		return PenaltyCritical
	case domain.ValidationSeverityError:
		return PenaltyError
	default:
		return PenaltyWarning
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func roundScore(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, it := range items {
		it.Notes = append([]string{}, it.Notes...)
		out[i] = it
	}
	return out
}
