package faktur

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fakturscan/internal/domain"
	"fakturscan/internal/normalize"
)

// swapped reports the classic OCR column mix-up where PPN came out larger than DPP.
func swapped(dpp, ppn decimal.Decimal) bool {
	return dpp.IsPositive() && ppn.GreaterThan(dpp)
}

func swapFinding(line int, dpp, ppn decimal.Decimal) domain.Finding {
	return domain.Finding{
		Kind:     domain.IssueFieldsSwapped,
		Severity: domain.ValidationSeverityCritical,
		Line:     line,
		Field:    "dpp,ppn",
		Expected: "ppn <= dpp",
		Actual:   fmt.Sprintf("dpp=%s ppn=%s", normalize.FormatDecimal(dpp), normalize.FormatDecimal(ppn)),
		Message:  "PPN exceeded DPP; values were swapped",
	}
}

// CorrectSwaps exchanges DPP and PPN on every item where PPN > DPP > 0 and
// returns one critical finding per corrected item. Raw values are swapped
// along with the normalized ones so the item stays self-consistent.
func CorrectSwaps(items []domain.LineItem) []domain.Finding {
	var out []domain.Finding
	for i := range items {
		it := &items[i]
		dpp, ppn := it.NormalizedValues.DPP, it.NormalizedValues.PPN
		if !swapped(dpp, ppn) {
			continue
		}
		f := swapFinding(it.LineNo, dpp, ppn)
		it.NormalizedValues.DPP, it.NormalizedValues.PPN = ppn, dpp
		it.RawValues.DPP, it.RawValues.PPN = it.RawValues.PPN, it.RawValues.DPP
		out = append(out, f)
	}
	return out
}

// CorrectSummarySwap applies the same correction to text-mode totals.
func CorrectSummarySwap(s *domain.InvoiceSummary) (domain.Finding, bool) {
	if !swapped(s.DPP, s.PPN) {
		return domain.Finding{}, false
	}
	f := swapFinding(0, s.DPP, s.PPN)
	s.DPP, s.PPN = s.PPN, s.DPP
	return f, true
}
