package layout

import (
	"regexp"
	"strings"

	"fakturscan/internal/normalize"
)

// SummaryField names an invoice-level total printed in the summary section.
type SummaryField string

const (
	FieldHargaJual SummaryField = "harga_jual"
	FieldPotongan  SummaryField = "potongan_harga"
	FieldUangMuka  SummaryField = "uang_muka"
	FieldDPP       SummaryField = "dpp"
	FieldPPN       SummaryField = "ppn"
	FieldPPnBM     SummaryField = "ppnbm"
)

type summaryRule struct {
	field   SummaryField
	pattern *regexp.Regexp
}

// summaryRules are ordered by priority; the earliest keyword in a line wins
// and priority only breaks ties at the same position.
var summaryRules = []summaryRule{
	{field: FieldPPnBM, pattern: regexp.MustCompile(`(?i)\bppn\s*bm\b|\bppnbm\b|\bbarang\s+mewah\b`)},
	{field: FieldUangMuka, pattern: regexp.MustCompile(`(?i)^\s*(?:dikurangi\s+)?uang\s+muka\b`)},
	{field: FieldPotongan, pattern: regexp.MustCompile(`(?i)\bpotongan(?:\s+harga)?\b`)},
	{field: FieldDPP, pattern: regexp.MustCompile(`(?i)\bdasar\s+pengenaan\s+pajak\b|\bdpp\b`)},
	{field: FieldPPN, pattern: regexp.MustCompile(`(?i)\b(?:jumlah|total)\s+ppn\b|\bppn\b`)},
	{field: FieldHargaJual, pattern: regexp.MustCompile(`(?i)\bharga\s+jual\b`)},
}

var (
	// amountRE starts on a digit, or on a misread O/I/l at a word start
	// followed by at least one real digit.
	amountRE         = regexp.MustCompile(`\d[0-9OIl.,]*|\b[OIl][OIl.,]*\d[0-9OIl.,]*`)
	spacedThousandRE = regexp.MustCompile(`(\d) (\d{3})\b`)
	percentAfterRE   = regexp.MustCompile(`^\s*%`)
	typeCodeRE       = regexp.MustCompile(
		`(?i)(?:kode\s+dan\s+nomor\s+seri\s+faktur\s+pajak|nomor\s+seri\s+faktur(?:\s+pajak)?|nomor\s+faktur(?:\s+pajak)?|no\.?\s*faktur|kode\s+faktur)\s*:?\s*(\d{3})`,
	)
)

// ClassifySummaryLine reports which summary total a line labels and the
// offset just past the matched keyword.
func ClassifySummaryLine(line string) (SummaryField, int, bool) {
	bestPos := -1
	var best summaryRule
	var bestEnd int
	for _, rule := range summaryRules {
		loc := rule.pattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if bestPos < 0 || loc[0] < bestPos {
			bestPos, best, bestEnd = loc[0], rule, loc[1]
		}
	}
	if bestPos < 0 {
		return "", 0, false
	}
	return best.field, bestEnd, true
}

// TrailingAmount returns the right-most amount in s, ignoring percentages.
func TrailingAmount(s string) (string, bool) {
	for spacedThousandRE.MatchString(s) {
		s = spacedThousandRE.ReplaceAllString(s, "$1$2")
	}
	var last string
	for _, loc := range amountRE.FindAllStringIndex(s, -1) {
		cand := strings.TrimRight(s[loc[0]:loc[1]], ".,")
		if percentAfterRE.MatchString(s[loc[1]:]) {
			continue
		}
		if !normalize.LooksNumeric(cand) {
			continue
		}
		last = cand
	}
	return last, last != ""
}

// DetectTypeCode extracts the three-digit Faktur Pajak type prefix from
// the serial number line, e.g. "Kode dan Nomor Seri Faktur Pajak: 010.000-24.00000001".
func DetectTypeCode(text string) (string, bool) {
	m := typeCodeRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
