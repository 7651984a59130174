// Package export renders parsed line items as CSV, XLSX or JSON.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"fakturscan/internal/domain"
)

// BOM is the UTF-8 byte order mark written ahead of CSV output for Excel on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the line item header row.
var columns = []string{
	"Document Name",
	"Line No",
	"Page",
	"Description",
	"Harga Jual",
	"Potongan",
	"DPP",
	"PPN",
	"PPnBM",
	"Row Confidence",
	"Notes",
	"Status",
}

// Document is one parse result to export.
type Document struct {
	Name   string
	Result *domain.ParseResult
}

// CSVWriter wraps csv.Writer for exporting line items.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteDocument writes one row per line item of doc.
func (w *CSVWriter) WriteDocument(doc Document) error {
	for i := range doc.Result.Items {
		if err := w.csv.Write(itemRow(doc, &doc.Result.Items[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a BOM, the header and every document's items.
func WriteCSV(out io.Writer, docs []Document) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewCSVWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := w.WriteDocument(doc); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func itemRow(doc Document, it *domain.LineItem) []string {
	v := it.NormalizedValues
	return []string{
		doc.Name,
		strconv.Itoa(it.LineNo),
		strconv.Itoa(it.Page),
		it.Description,
		formatMoney(v.HargaJual),
		formatMoney(it.Potongan),
		formatMoney(v.DPP),
		formatMoney(v.PPN),
		formatMoney(it.PPnBM),
		strconv.FormatFloat(it.RowConfidence, 'f', 2, 64),
		joinNotes(it.Notes),
		string(doc.Result.Status),
	}
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
