package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"fakturscan/internal/diag"
	"fakturscan/internal/domain"
	"fakturscan/internal/layout"
	"fakturscan/internal/validator"
)

// parseText reads the invoice totals from summary lines. When a total is
// printed more than once the last occurrence wins. trusted is false when
// text mode is a fallback for an undetected layout; the result then always
// needs review.
func (p *Parser) parseText(text, typeCode string, trusted bool, d *diag.Builder) *domain.ParseResult {
	d.SetSource(domain.SourceTextOnly)

	values := make(map[layout.SummaryField]decimal.Decimal)
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		field, end, ok := layout.ClassifySummaryLine(line)
		if !ok {
			continue
		}
		amt, ok := layout.TrailingAmount(line[end:])
		if !ok {
			continue
		}
		v, err := normalizeAmount(amt, 0, "summary."+string(field), d)
		if err != nil {
			continue
		}
		values[field] = v
	}

	summary := summaryFrom(values)
	var found domain.MoneyFields[bool]
	for field, label := range reconciledFields {
		_, ok := values[field]
		found.Set(label, ok)
	}

	out := p.engine.Evaluate(validator.Input{
		TypeCode:       typeCode,
		TextSummary:    &summary,
		SummaryFound:   found,
		Source:         domain.SourceTextOnly,
		HeaderComplete: trusted && found.HargaJual && found.DPP && found.PPN,
		Findings:       d.Findings(),
	})
	return assemble(out, nil, d)
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}
