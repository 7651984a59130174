package parser

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fakturscan/internal/diag"
	"fakturscan/internal/domain"
	"fakturscan/internal/layout"
	"fakturscan/internal/normalize"
	"fakturscan/internal/table"
)

// summaryFields fixes the iteration order over summary totals.
var summaryFields = []layout.SummaryField{
	layout.FieldHargaJual,
	layout.FieldPotongan,
	layout.FieldUangMuka,
	layout.FieldDPP,
	layout.FieldPPN,
	layout.FieldPPnBM,
}

// reconciledFields are the printed totals compared against computed ones.
var reconciledFields = map[layout.SummaryField]domain.ColumnLabel{
	layout.FieldHargaJual: domain.ColumnHargaJual,
	layout.FieldDPP:       domain.ColumnDPP,
	layout.FieldPPN:       domain.ColumnPPN,
}

// buildItems numbers candidates from 1 and normalizes their amounts.
// A malformed amount stays zero, is counted on the item and is reported.
func buildItems(cands []table.Candidate, d *diag.Builder) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(cands))
	for i, c := range cands {
		li := domain.LineItem{
			LineNo:              i + 1,
			Page:                c.Page,
			Description:         normalize.CleanDescription(c.Description),
			RawValues:           c.Raw,
			Notes:               []string{},
			MinSourceConfidence: c.MinConfidence,
		}
		for _, label := range domain.MoneyColumns {
			raw := c.Raw.Get(label)
			if raw == "" {
				continue
			}
			v, err := normalizeAmount(raw, li.LineNo, fmt.Sprintf("items[%d].%s", li.LineNo, label), d)
			if err != nil {
				li.Malformed++
				continue
			}
			li.NormalizedValues.Set(label, v)
		}
		if c.RawPotongan != "" {
			if v, err := normalizeAmount(c.RawPotongan, li.LineNo, fmt.Sprintf("items[%d].potongan", li.LineNo), d); err == nil {
				li.Potongan = v
			}
		}
		if c.RawPPnBM != "" {
			if v, err := normalizeAmount(c.RawPPnBM, li.LineNo, fmt.Sprintf("items[%d].ppnbm", li.LineNo), d); err == nil {
				li.PPnBM = v
			}
		}
		items = append(items, li)
	}
	return items
}

// normalizeAmount parses raw and records a MalformedNumber finding on failure.
func normalizeAmount(raw string, line int, field string, d *diag.Builder) (decimal.Decimal, error) {
	v, err := normalize.ParseDecimal(raw)
	if err != nil {
		d.Add(domain.Finding{
			Kind:     domain.IssueMalformedNumber,
			Severity: domain.ValidationSeverityWarning,
			Line:     line,
			Field:    field,
			Actual:   raw,
			Message:  err.Error(),
		})
		return decimal.Zero, err
	}
	return v, nil
}

func summaryFrom(values map[layout.SummaryField]decimal.Decimal) domain.InvoiceSummary {
	return domain.InvoiceSummary{
		HargaJual:     values[layout.FieldHargaJual],
		PotonganHarga: values[layout.FieldPotongan],
		UangMuka:      values[layout.FieldUangMuka],
		DPP:           values[layout.FieldDPP],
		PPN:           values[layout.FieldPPN],
		PPnBM:         values[layout.FieldPPnBM],
	}
}
