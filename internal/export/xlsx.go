package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	itemsSheet   = "Items"
	summarySheet = "Summary"
)

var summaryColumns = []string{
	"Document Name",
	"Status",
	"Confidence",
	"Valid",
	"Harga Jual",
	"Potongan Harga",
	"Uang Muka",
	"DPP",
	"PPN",
	"PPnBM",
	"Tax Rate",
	"Issues",
}

// WriteXLSX returns a workbook with an Items sheet holding every line item
// and a Summary sheet holding one row per document.
func WriteXLSX(docs []Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeHeader(f, itemsSheet, columns, bold); err != nil {
		return nil, err
	}
	row := 2
	for _, doc := range docs {
		for i := range doc.Result.Items {
			it := &doc.Result.Items[i]
			v := it.NormalizedValues
			values := []any{
				doc.Name, it.LineNo, it.Page, it.Description,
				amount(v.HargaJual), amount(it.Potongan), amount(v.DPP), amount(v.PPN), amount(it.PPnBM),
				it.RowConfidence, joinNotes(it.Notes), string(doc.Result.Status),
			}
			if err := writeRow(f, itemsSheet, row, values); err != nil {
				return nil, err
			}
			row++
		}
	}
	if row > 2 {
		if err := f.SetCellStyle(itemsSheet, "E2", fmt.Sprintf("I%d", row-1), money); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(itemsSheet, "A", "A", 24)
	_ = f.SetColWidth(itemsSheet, "D", "D", 48)
	_ = f.SetColWidth(itemsSheet, "E", "I", 18)
	_ = f.SetColWidth(itemsSheet, "K", "K", 40)

	if err := writeHeader(f, summarySheet, summaryColumns, bold); err != nil {
		return nil, err
	}
	for i, doc := range docs {
		res := doc.Result
		s := res.Summary
		values := []any{
			doc.Name, string(res.Status), res.ConfidenceScore, res.IsValid,
			amount(s.HargaJual), amount(s.PotonganHarga), amount(s.UangMuka),
			amount(s.DPP), amount(s.PPN), amount(s.PPnBM),
			s.DetectedTaxRate.InexactFloat64(), joinNotes(res.ValidationIssues),
		}
		if err := writeRow(f, summarySheet, i+2, values); err != nil {
			return nil, err
		}
	}
	if len(docs) > 0 {
		if err := f.SetCellStyle(summarySheet, "E2", fmt.Sprintf("J%d", len(docs)+1), money); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "E", "J", 18)
	_ = f.SetColWidth(summarySheet, "L", "L", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// amount converts to float64 for the spreadsheet cell. Rupiah amounts with
// two decimals stay exact well beyond any invoice total.
func amount(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
