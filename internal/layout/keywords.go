package layout

import (
	"regexp"

	"fakturscan/internal/domain"
)

// HeaderKeyword is a precompiled rule recognising one money-column header.
type HeaderKeyword struct {
	Label   domain.ColumnLabel
	Pattern *regexp.Regexp
}

// headerKeywords are evaluated in order; earlier rules win for the same label.
var headerKeywords = []HeaderKeyword{
	{Label: domain.ColumnHargaJual, Pattern: regexp.MustCompile(`(?i)\bharga\s+jual\b`)},
	{Label: domain.ColumnDPP, Pattern: regexp.MustCompile(`(?i)\bdasar\s+pengenaan\s+pajak\b`)},
	{Label: domain.ColumnDPP, Pattern: regexp.MustCompile(`(?i)\bdpp\b`)},
	{Label: domain.ColumnPPN, Pattern: regexp.MustCompile(`(?i)\bjumlah\s+ppn\b`)},
	{Label: domain.ColumnPPN, Pattern: regexp.MustCompile(`(?i)\bppn\b`)},
}

// tableEndRE matches the leading text of a totals row.
var tableEndRE = regexp.MustCompile(
	`(?i)^\s*(?:jumlah|total|grand\s+total|dikurangi|dasar\s+pengenaan\s+pajak|dpp|uang\s+muka)\b`,
)

// maxPhraseTokens bounds how many consecutive tokens a header phrase may span.
const maxPhraseTokens = 6

// HeaderKeywords returns a copy of the header rules in priority order.
func HeaderKeywords() []HeaderKeyword {
	out := make([]HeaderKeyword, len(headerKeywords))
	copy(out, headerKeywords)
	return out
}

// IsTableEnd reports whether a row's text opens the totals section.
func IsTableEnd(rowText string) bool {
	return tableEndRE.MatchString(rowText)
}
