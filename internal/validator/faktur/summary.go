package faktur

import (
	"fakturscan/internal/domain"
)

// Summarize totals the items. The tax rate is left for DetectTaxRate.
func Summarize(items []domain.LineItem) domain.InvoiceSummary {
	var s domain.InvoiceSummary
	for i := range items {
		it := &items[i]
		s.HargaJual = s.HargaJual.Add(it.NormalizedValues.HargaJual)
		s.DPP = s.DPP.Add(it.NormalizedValues.DPP)
		s.PPN = s.PPN.Add(it.NormalizedValues.PPN)
		s.PotonganHarga = s.PotonganHarga.Add(it.Potongan)
		s.PPnBM = s.PPnBM.Add(it.PPnBM)
	}
	return s
}
