package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fakturscan/internal/geometry"
)

// Token is a positioned unit of OCR text. Tokens are never mutated after extraction.
type Token struct {
	Text       string        `json:"text"`
	BBox       geometry.Rect `json:"bbox"`
	Page       int           `json:"page"`
	Confidence float64       `json:"source_confidence"`
}

// ColumnRange is the horizontal span a table column occupies.
type ColumnRange struct {
	Label ColumnLabel `json:"label"`
	XMin  float64     `json:"x_min"`
	XMax  float64     `json:"x_max"`
}

// Center returns the horizontal midpoint of the range.
func (c ColumnRange) Center() float64 { return (c.XMin + c.XMax) / 2 }

// Width returns the span of the range.
func (c ColumnRange) Width() float64 { return c.XMax - c.XMin }

// Row is a visual line of tokens. Tokens are ordered left to right.
type Row struct {
	Page    int     `json:"page"`
	YCenter float64 `json:"y_center"`
	Tokens  []Token `json:"tokens"`
}

// Text joins the row's token texts with single spaces.
func (r Row) Text() string {
	parts := make([]string, len(r.Tokens))
	for i, t := range r.Tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// Top returns the smallest Y0 among the row's tokens.
func (r Row) Top() float64 {
	if len(r.Tokens) == 0 {
		return r.YCenter
	}
	top := r.Tokens[0].BBox.Y0
	for _, t := range r.Tokens[1:] {
		if t.BBox.Y0 < top {
			top = t.BBox.Y0
		}
	}
	return top
}

// MoneyFields holds one value per money column.
type MoneyFields[T any] struct {
	HargaJual T `json:"harga_jual"`
	DPP       T `json:"dpp"`
	PPN       T `json:"ppn"`
}

// Get returns the value for a money column label.
func (m MoneyFields[T]) Get(label ColumnLabel) T {
	switch label {
	case ColumnHargaJual:
		return m.HargaJual
	case ColumnDPP:
		return m.DPP
	case ColumnPPN:
		return m.PPN
	}
	var zero T
	return zero
}

// Set stores the value for a money column label. Unknown labels are ignored.
func (m *MoneyFields[T]) Set(label ColumnLabel, v T) {
	switch label {
	case ColumnHargaJual:
		m.HargaJual = v
	case ColumnDPP:
		m.DPP = v
	case ColumnPPN:
		m.PPN = v
	}
}

// LineItem is one row of the Faktur Pajak goods/services table.
type LineItem struct {
	LineNo           int                          `json:"line_no"`
	Page             int                          `json:"page"`
	Description      string                       `json:"description"`
	RawValues        MoneyFields[string]          `json:"raw_values"`
	NormalizedValues MoneyFields[decimal.Decimal] `json:"normalized_values"`
	Potongan         decimal.Decimal              `json:"potongan"`
	PPnBM            decimal.Decimal              `json:"ppnbm"`
	RowConfidence    float64                      `json:"row_confidence"`
	Notes            []string                     `json:"notes"`

	// MinSourceConfidence is the lowest OCR confidence among the money tokens.
	MinSourceConfidence float64 `json:"-"`
	// Malformed counts money fields whose text could not be parsed.
	Malformed int `json:"-"`
}

// Present reports whether the raw value for label was captured.
func (li *LineItem) Present(label ColumnLabel) bool {
	return li.RawValues.Get(label) != ""
}

// PresentCount returns how many of the three money fields were captured.
func (li *LineItem) PresentCount() int {
	n := 0
	for _, l := range MoneyColumns {
		if li.Present(l) {
			n++
		}
	}
	return n
}

// InvoiceSummary carries the invoice-level totals.
type InvoiceSummary struct {
	HargaJual       decimal.Decimal `json:"harga_jual"`
	PotonganHarga   decimal.Decimal `json:"potongan_harga"`
	UangMuka        decimal.Decimal `json:"uang_muka"`
	DPP             decimal.Decimal `json:"dpp"`
	PPN             decimal.Decimal `json:"ppn"`
	PPnBM           decimal.Decimal `json:"ppnbm"`
	DetectedTaxRate decimal.Decimal `json:"detected_tax_rate"`
}

// Finding is a single validation or parsing issue.
type Finding struct {
	Kind     IssueKind          `json:"kind"`
	Severity ValidationSeverity `json:"severity"`
	Line     int                `json:"line,omitempty"`
	Field    string             `json:"field,omitempty"`
	Expected string             `json:"expected,omitempty"`
	Actual   string             `json:"actual,omitempty"`
	Message  string             `json:"message"`
}

// String renders the finding the way it appears in validation_issues.
func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s (%s) line %d: %s", f.Kind, f.Severity, f.Line, f.Message)
	}
	return fmt.Sprintf("%s (%s): %s", f.Kind, f.Severity, f.Message)
}

// PageStat describes how a single page was parsed.
type PageStat struct {
	Page           int      `json:"page"`
	HeaderDetected bool     `json:"header_detected"`
	StickyColumns  bool     `json:"sticky_columns"`
	RowsFound      int      `json:"rows_found"`
	ItemsStarted   int      `json:"items_started"`
	SkippedRows    int      `json:"skipped_rows"`
	TableEndY      *float64 `json:"table_end_y,omitempty"`
	Tokens         []Token  `json:"tokens,omitempty"`
}

// Debug is the diagnostics block of a ParseResult. Field names are contract-stable.
type Debug struct {
	TokenCount   int          `json:"token_count"`
	PageCount    int          `json:"page_count"`
	Source       LayoutSource `json:"source"`
	Extractor    string       `json:"extractor,omitempty"`
	RateSource   RateSource   `json:"rate_source,omitempty"`
	PerPageStats []PageStat   `json:"per_page_stats"`
}

// ParseResult is the complete, write-once outcome of parsing one invoice.
type ParseResult struct {
	Items            []LineItem      `json:"items"`
	Summary          InvoiceSummary  `json:"summary"`
	DeclaredSummary  *InvoiceSummary `json:"declared_summary,omitempty"`
	IsValid          bool            `json:"is_valid"`
	ValidationIssues []string        `json:"validation_issues"`
	Findings         []Finding       `json:"findings"`
	ConfidenceScore  float64         `json:"confidence_score"`
	Status           ParseStatus     `json:"status"`
	Debug            Debug           `json:"debug"`
}

// ParseRecord is a persisted parse result.
type ParseRecord struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	DocumentName    string          `db:"document_name" json:"document_name"`
	InvoiceTypeCode string          `db:"invoice_type_code" json:"invoice_type_code"`
	Status          ParseStatus     `db:"status" json:"status"`
	ConfidenceScore float64         `db:"confidence_score" json:"confidence_score"`
	IsValid         bool            `db:"is_valid" json:"is_valid"`
	ItemCount       int             `db:"item_count" json:"item_count"`
	Source          LayoutSource    `db:"source" json:"source"`
	Extractor       string          `db:"extractor" json:"extractor"`
	Result          json.RawMessage `db:"result" json:"result"`
	ArchiveKey      *string         `db:"archive_key" json:"archive_key,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// Decode unmarshals the stored result JSON.
func (r *ParseRecord) Decode() (*ParseResult, error) {
	var res ParseResult
	if err := json.Unmarshal(r.Result, &res); err != nil {
		return nil, fmt.Errorf("decoding parse result %s: %w", r.ID, err)
	}
	return &res, nil
}
