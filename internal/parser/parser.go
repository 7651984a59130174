// Package parser turns OCR tokens or raw text from an Indonesian Faktur Pajak
// into validated line items and totals. Parse performs no I/O and keeps no
// state between calls, so a Parser may be shared by many goroutines.
package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"fakturscan/internal/diag"
	"fakturscan/internal/domain"
	"fakturscan/internal/layout"
	"fakturscan/internal/table"
	"fakturscan/internal/validator"
)

// Options groups the tunables of every pipeline stage.
type Options struct {
	Layout        layout.Options
	Table         table.Options
	Validator     validator.Options
	DebugTokenCap int
}

// DefaultOptions returns the standard pipeline settings.
func DefaultOptions() Options {
	return Options{
		Layout:        layout.DefaultOptions(),
		Table:         table.DefaultOptions(),
		Validator:     validator.DefaultOptions(),
		DebugTokenCap: diag.DefaultTokenCap,
	}
}

// Input is one document to parse. Either Tokens or Text must be set; when
// both are present the tokens drive the table and the text only feeds type
// code detection.
type Input struct {
	Tokens          []domain.Token `json:"tokens"`
	Text            string         `json:"text"`
	PageCount       int            `json:"page_count"`
	InvoiceTypeCode string         `json:"invoice_type_code"`
	// Extractor names the strategy that produced the tokens, for diagnostics.
	Extractor string `json:"-"`
}

// Parser runs the layout, table, normalization and validation stages.
type Parser struct {
	opts   Options
	walker *table.Walker
	engine *validator.Engine
}

// New creates a Parser with the built-in validation rules.
func New(opts Options) *Parser {
	return NewWithRegistry(opts, validator.DefaultRegistry())
}

// NewWithRegistry creates a Parser that validates with a custom rule registry.
func NewWithRegistry(opts Options, registry *validator.Registry) *Parser {
	return &Parser{
		opts:   opts,
		walker: table.NewWalker(layout.NewDetector(opts.Layout), opts.Table),
		engine: validator.NewEngine(registry, opts.Validator),
	}
}

// Parse runs the full pipeline. It never returns nil; failures are reported
// through Status, Findings and ValidationIssues.
func (p *Parser) Parse(in Input) *domain.ParseResult {
	d := diag.New(p.opts.DebugTokenCap)
	d.SetInput(len(in.Tokens), pageCount(in))
	d.SetExtractor(in.Extractor)

	if len(in.Tokens) == 0 && strings.TrimSpace(in.Text) == "" {
		return emptyResult(d)
	}

	typeCode := in.InvoiceTypeCode
	if typeCode == "" {
		typeCode = p.detectTypeCode(in)
	}

	if len(in.Tokens) == 0 {
		return p.parseText(in.Text, typeCode, true, d)
	}

	walked, err := p.walker.Walk(in.Tokens, pageCount(in), d)
	if err != nil {
		d.Add(domain.Finding{
			Kind:     domain.IssueLayoutNotDetected,
			Severity: domain.ValidationSeverityWarning,
			Message:  "no table header or numeric columns found; totals read from text",
		})
		text := in.Text
		if strings.TrimSpace(text) == "" {
			text = p.tokensText(in.Tokens)
		}
		return p.parseText(text, typeCode, false, d)
	}

	d.SetSource(walked.Source)
	items := buildItems(walked.Candidates, d)
	declared, declaredSummary := p.parseDeclared(walked.Declared, d)

	out := p.engine.Evaluate(validator.Input{
		TypeCode:       typeCode,
		Items:          items,
		Declared:       declared,
		Source:         walked.Source,
		HeaderComplete: walked.HeaderComplete,
		Findings:       d.Findings(),
	})
	return assemble(out, declaredSummary, d)
}

func (p *Parser) detectTypeCode(in Input) string {
	if code, ok := layout.DetectTypeCode(in.Text); ok {
		return code
	}
	if len(in.Tokens) > 0 {
		if code, ok := layout.DetectTypeCode(p.tokensText(in.Tokens)); ok {
			return code
		}
	}
	return ""
}

// parseDeclared converts the printed totals. Unreadable amounts are reported
// and left out of reconciliation.
func (p *Parser) parseDeclared(raw map[layout.SummaryField]string, d *diag.Builder) (map[domain.ColumnLabel]decimal.Decimal, *domain.InvoiceSummary) {
	if len(raw) == 0 {
		return nil, nil
	}
	values := make(map[layout.SummaryField]decimal.Decimal, len(raw))
	for _, field := range summaryFields {
		s, ok := raw[field]
		if !ok {
			continue
		}
		v, err := normalizeAmount(s, 0, "declared."+string(field), d)
		if err != nil {
			continue
		}
		values[field] = v
	}
	if len(values) == 0 {
		return nil, nil
	}

	summary := summaryFrom(values)
	recon := make(map[domain.ColumnLabel]decimal.Decimal, 3)
	for field, label := range reconciledFields {
		if v, ok := values[field]; ok {
			recon[label] = v
		}
	}
	return recon, &summary
}

func assemble(out *validator.Outcome, declared *domain.InvoiceSummary, d *diag.Builder) *domain.ParseResult {
	d.SetRateSource(out.RateSource)

	findings := out.Findings
	if findings == nil {
		findings = []domain.Finding{}
	}
	issues := make([]string, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.String())
	}
	items := out.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return &domain.ParseResult{
		Items:            items,
		Summary:          out.Summary,
		DeclaredSummary:  declared,
		IsValid:          out.IsValid,
		ValidationIssues: issues,
		Findings:         findings,
		ConfidenceScore:  out.Confidence,
		Status:           out.Status,
		Debug:            d.Debug(),
	}
}

func emptyResult(d *diag.Builder) *domain.ParseResult {
	d.SetSource(domain.SourceTextOnly)
	f := domain.Finding{
		Kind:     domain.IssueEmptyInput,
		Severity: domain.ValidationSeverityError,
		Message:  "no tokens and no text to parse",
	}
	return &domain.ParseResult{
		Items:            []domain.LineItem{},
		IsValid:          false,
		ValidationIssues: []string{f.String()},
		Findings:         []domain.Finding{f},
		ConfidenceScore:  0,
		Status:           domain.StatusFailed,
		Debug:            d.Debug(),
	}
}

func pageCount(in Input) int {
	n := in.PageCount
	for i := range in.Tokens {
		n = max(n, in.Tokens[i].Page)
	}
	if n == 0 && (len(in.Tokens) > 0 || in.Text != "") {
		n = 1
	}
	return n
}

// tokensText rebuilds reading-order text, one visual row per line.
func (p *Parser) tokensText(tokens []domain.Token) string {
	byPage := make(map[int][]domain.Token)
	last := 1
	for _, t := range tokens {
		pg := max(t.Page, 1)
		byPage[pg] = append(byPage[pg], t)
		last = max(last, pg)
	}
	var lines []string
	for pg := 1; pg <= last; pg++ {
		for _, row := range layout.ClusterRows(byPage[pg], p.opts.Layout.RowThreshold) {
			lines = append(lines, row.Text())
		}
	}
	return strings.Join(lines, "\n")
}
