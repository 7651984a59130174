package domain

// ColumnLabel identifies a column of the Faktur Pajak line-item table.
type ColumnLabel string

const (
	ColumnHargaJual   ColumnLabel = "harga_jual"
	ColumnDPP         ColumnLabel = "dpp"
	ColumnPPN         ColumnLabel = "ppn"
	ColumnDescription ColumnLabel = "description"
)

// MoneyColumns lists the three money columns in their printed left-to-right order.
var MoneyColumns = []ColumnLabel{ColumnHargaJual, ColumnDPP, ColumnPPN}

// ParseStatus is the final disposition of a parse.
type ParseStatus string

const (
	StatusApproved    ParseStatus = "approved"
	StatusNeedsReview ParseStatus = "needs_review"
	StatusFailed      ParseStatus = "failed"
)

// ValidParseStatuses is the set of accepted status filter values.
var ValidParseStatuses = map[ParseStatus]bool{
	StatusApproved:    true,
	StatusNeedsReview: true,
	StatusFailed:      true,
}

// LayoutSource records how the table geometry was obtained.
// The values are part of the result contract and must not change.
type LayoutSource string

const (
	SourceHeaderDetected LayoutSource = "header-detected"
	SourceHeuristic      LayoutSource = "heuristic-fallback"
	SourceTextOnly       LayoutSource = "text-only"
)

// RateSource records which branch of tax rate detection produced the rate.
type RateSource string

const (
	RateZeroRated  RateSource = "zero-rated"
	RateCalculated RateSource = "calculated"
	RateTypeCode   RateSource = "type-code"
	RateDefault    RateSource = "default"
)

// IssueKind classifies a finding.
type IssueKind string

const (
	IssueMalformedNumber     IssueKind = "MalformedNumber"
	IssueLayoutNotDetected   IssueKind = "LayoutNotDetected"
	IssueEmptyInput          IssueKind = "EmptyInput"
	IssueFieldsSwapped       IssueKind = "FieldsSwapped"
	IssueToleranceViolation  IssueKind = "ToleranceViolation"
	IssueStructuralViolation IssueKind = "StructuralViolation"
	IssueZeroRatedWithTax    IssueKind = "ZeroRatedWithTax"
	IssueMissingField        IssueKind = "MissingField"
	IssueLowConfidence       IssueKind = "LowConfidence"
	IssueTotalsMismatch      IssueKind = "TotalsMismatch"
)

// ValidationSeverity defines how a failed rule affects the result.
type ValidationSeverity string

const (
	ValidationSeverityCritical ValidationSeverity = "critical"
	ValidationSeverityError    ValidationSeverity = "error"
	ValidationSeverityWarning  ValidationSeverity = "warning"
)

// ValidationRuleType groups validation rules by what they check.
type ValidationRuleType string

const (
	ValidationRuleRequired       ValidationRuleType = "required"
	ValidationRuleSumCheck       ValidationRuleType = "sum_check"
	ValidationRuleReconciliation ValidationRuleType = "reconciliation"
	ValidationRuleCustom         ValidationRuleType = "custom"
)

// ExportFormat is an output format for parsed line items.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ExportContentTypes maps export formats to their MIME types.
var ExportContentTypes = map[ExportFormat]string{
	ExportFormatJSON: "application/json",
	ExportFormatCSV:  "text/csv; charset=utf-8",
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}
