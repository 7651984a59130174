package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"fakturscan/internal/domain"
	"fakturscan/internal/geometry"
	"fakturscan/internal/port"
)

// PDFTextName identifies the PDF text-layer strategy.
const PDFTextName = "pdf-text"

// defaultPageHeight is A4 in points, used when a page has no MediaBox.
const defaultPageHeight = 842.0

var errNoTextLayer = errors.New("pdf has no text layer")

// PDFTextExtractor reads the embedded text layer of born-digital PDFs.
// Glyphs are merged into words and flipped into top-left page coordinates.
type PDFTextExtractor struct {
	// WordGapRatio is the horizontal gap, as a fraction of font size, that
	// separates two words on the same line.
	WordGapRatio float64
	// LineRatio is the vertical baseline drift, as a fraction of font size,
	// still treated as the same line.
	LineRatio float64
}

// NewPDFTextExtractor creates a PDFTextExtractor with the standard ratios.
func NewPDFTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{WordGapRatio: 0.25, LineRatio: 0.5}
}

func (e *PDFTextExtractor) Name() string { return PDFTextName }

func (e *PDFTextExtractor) Extract(ctx context.Context, input port.ExtractInput) (out *port.Extraction, err error) {
	if !isPDF(input) {
		return nil, ErrNotApplicable
	}
	// the pdf reader panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, newStrategyError(PDFTextName, fmt.Errorf("reading pdf: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(input.Data), int64(len(input.Data)))
	if err != nil {
		return nil, newStrategyError(PDFTextName, fmt.Errorf("opening pdf: %w", err))
	}

	n := r.NumPage()
	out = &port.Extraction{PageCount: n}
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		out.Tokens = append(out.Tokens, e.Words(p.Content().Text, i, pageHeight(p))...)
	}
	if len(out.Tokens) == 0 {
		return nil, newStrategyError(PDFTextName, errNoTextLayer)
	}
	return out, nil
}

// Words groups positioned glyphs into word tokens. PDF coordinates have the
// origin at the bottom-left, so Y is flipped against pageHeight.
func (e *PDFTextExtractor) Words(glyphs []pdf.Text, page int, pageHeight float64) []domain.Token {
	var tokens []domain.Token
	for _, line := range e.lines(glyphs) {
		var cur *word
		for _, g := range line {
			size := fontSize(g)
			if strings.TrimSpace(g.S) == "" {
				cur = flush(&tokens, cur, page, pageHeight)
				continue
			}
			if cur != nil && g.X-cur.x1 > size*e.WordGapRatio {
				cur = flush(&tokens, cur, page, pageHeight)
			}
			if cur == nil {
				cur = &word{x0: g.X, x1: g.X, baseline: g.Y}
			}
			cur.text.WriteString(g.S)
			cur.x1 = math.Max(cur.x1, g.X+g.W)
			cur.size = math.Max(cur.size, size)
			cur.baseline = math.Min(cur.baseline, g.Y)
		}
		flush(&tokens, cur, page, pageHeight)
	}
	return tokens
}

type word struct {
	text     strings.Builder
	x0, x1   float64
	baseline float64
	size     float64
}

func flush(tokens *[]domain.Token, w *word, page int, pageHeight float64) *word {
	if w == nil || w.text.Len() == 0 {
		return nil
	}
	top := pageHeight - (w.baseline + w.size)
	*tokens = append(*tokens, domain.Token{
		Text:       w.text.String(),
		BBox:       geometry.NewRect(w.x0, top, w.x1, pageHeight-w.baseline),
		Page:       page,
		Confidence: 1,
	})
	return nil
}

// lines buckets glyphs by baseline from the top of the page down and orders
// each line left to right.
func (e *PDFTextExtractor) lines(glyphs []pdf.Text) [][]pdf.Text {
	sorted := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var out [][]pdf.Text
	for _, g := range sorted {
		n := len(out)
		if n > 0 && math.Abs(out[n-1][0].Y-g.Y) <= fontSize(g)*e.LineRatio {
			out[n-1] = append(out[n-1], g)
			continue
		}
		out = append(out, []pdf.Text{g})
	}
	for _, line := range out {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
	}
	return out
}

func fontSize(g pdf.Text) float64 {
	if g.FontSize <= 0 {
		return 10
	}
	return g.FontSize
}

// pageHeight reads the MediaBox, following inheritance through parent page nodes.
func pageHeight(p pdf.Page) float64 {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

func isPDF(input port.ExtractInput) bool {
	return input.ContentType == "application/pdf" || bytes.HasPrefix(input.Data, []byte("%PDF-"))
}
