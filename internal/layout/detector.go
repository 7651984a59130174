package layout

import (
	"math"
	"sort"
	"strings"

	"fakturscan/internal/domain"
	"fakturscan/internal/geometry"
	"fakturscan/internal/normalize"
)

// Options tunes the layout detector. Distances are in page units (pixels for scans).
type Options struct {
	RowThreshold   float64
	ExpansionMinPx float64
	ExpansionRatio float64
	HeaderBandPx   float64
	ClusterGapPx   float64
}

// DefaultOptions returns the standard detector settings.
func DefaultOptions() Options {
	return Options{
		RowThreshold:   3,
		ExpansionMinPx: 10,
		ExpansionRatio: 0.05,
		HeaderBandPx:   60,
		ClusterGapPx:   12,
	}
}

// Header is the detected money-column geometry of a table.
type Header struct {
	// Ranges holds the three money columns ordered left to right.
	Ranges []domain.ColumnRange
	// HeaderY is the lowest edge of the header; body rows lie below it.
	HeaderY float64
	// Page is the page the header (or the fallback's first column cell) sits on.
	Page   int
	Source domain.LayoutSource
}

// Leftmost returns the leftmost money column.
func (h *Header) Leftmost() domain.ColumnRange {
	return h.Ranges[0]
}

// Range returns the range for a money column label.
func (h *Header) Range(label domain.ColumnLabel) (domain.ColumnRange, bool) {
	for _, r := range h.Ranges {
		if r.Label == label {
			return r, true
		}
	}
	return domain.ColumnRange{}, false
}

// Detector locates table headers, table ends and fallback column geometry.
type Detector struct {
	opts Options
}

// NewDetector creates a Detector.
func NewDetector(opts Options) *Detector {
	return &Detector{opts: opts}
}

// Options returns the detector settings.
func (d *Detector) Options() Options {
	return d.opts
}

type labelMatch struct {
	label    domain.ColumnLabel
	priority int
	rect     geometry.Rect
	row      int
}

// DetectHeader finds the row(s) carrying the Harga Jual, DPP and PPN column
// headers on a single page. It reports false when any of the three is missing.
func (d *Detector) DetectHeader(tokens []domain.Token) (*Header, bool) {
	rows := ClusterRows(tokens, d.opts.RowThreshold)

	var matches []labelMatch
	for ri, row := range rows {
		matches = append(matches, matchRow(ri, row)...)
	}

	for _, anchor := range matches {
		if anchor.label != domain.ColumnHargaJual {
			continue
		}
		picked := map[domain.ColumnLabel]labelMatch{domain.ColumnHargaJual: anchor}
		for _, label := range []domain.ColumnLabel{domain.ColumnDPP, domain.ColumnPPN} {
			if m, ok := d.nearest(matches, anchor, label); ok {
				picked[label] = m
			}
		}
		if len(picked) < len(domain.MoneyColumns) {
			continue
		}

		rects := make(map[domain.ColumnLabel]geometry.Rect, len(picked))
		headerY := math.Inf(-1)
		for label, m := range picked {
			rects[label] = m.rect
			headerY = math.Max(headerY, m.rect.Y1)
		}
		return &Header{
			Ranges:  d.expandRanges(rects),
			HeaderY: headerY,
			Page:    rows[anchor.row].Page,
			Source:  domain.SourceHeaderDetected,
		}, true
	}
	return nil, false
}

// nearest picks the best match for label within the vertical header band
// around anchor: higher-priority rule first, then smaller vertical distance.
func (d *Detector) nearest(matches []labelMatch, anchor labelMatch, label domain.ColumnLabel) (labelMatch, bool) {
	var best labelMatch
	found := false
	bestDist := math.Inf(1)
	for _, m := range matches {
		if m.label != label {
			continue
		}
		if geometry.SpanOverlap(m.rect.X0, m.rect.X1, anchor.rect.X0, anchor.rect.X1) > 0 {
			continue
		}
		dist := math.Abs(m.rect.CenterY() - anchor.rect.CenterY())
		if dist > d.opts.HeaderBandPx {
			continue
		}
		if !found || m.priority < best.priority || (m.priority == best.priority && dist < bestDist) {
			best, bestDist, found = m, dist, true
		}
	}
	return best, found
}

// matchRow applies the header rules to short runs of consecutive tokens so
// that both split words ("Harga" "Jual") and whole-phrase tokens match.
func matchRow(rowIdx int, row domain.Row) []labelMatch {
	var out []labelMatch
	used := make([]bool, len(row.Tokens))
	seen := make(map[domain.ColumnLabel]bool)

	for p, rule := range headerKeywords {
		if seen[rule.Label] {
			continue
		}
		for i := range row.Tokens {
			if used[i] {
				continue
			}
			end, ok := matchFrom(row.Tokens, used, i, rule)
			if !ok {
				continue
			}
			rect := row.Tokens[i].BBox
			for k := i; k <= end; k++ {
				rect = rect.Union(row.Tokens[k].BBox)
				used[k] = true
			}
			out = append(out, labelMatch{label: rule.Label, priority: p, rect: rect, row: rowIdx})
			seen[rule.Label] = true
			break
		}
	}
	return out
}

// matchFrom returns the index of the last token of the shortest phrase
// starting at token i that satisfies rule, with the match beginning inside token i.
func matchFrom(tokens []domain.Token, used []bool, i int, rule HeaderKeyword) (int, bool) {
	var phrase strings.Builder
	for j := i; j < len(tokens) && j < i+maxPhraseTokens; j++ {
		if used[j] {
			return 0, false
		}
		if j > i {
			phrase.WriteByte(' ')
		}
		phrase.WriteString(tokens[j].Text)
		loc := rule.Pattern.FindStringIndex(phrase.String())
		if loc != nil && loc[0] < len(tokens[i].Text) {
			return j, true
		}
	}
	return 0, false
}

// expandRanges widens each matched header by max(ExpansionMinPx, ExpansionRatio*width)
// and clamps neighbours so money columns never overlap.
func (d *Detector) expandRanges(rects map[domain.ColumnLabel]geometry.Rect) []domain.ColumnRange {
	type span struct {
		rng  domain.ColumnRange
		orig geometry.Rect
	}
	spans := make([]span, 0, len(rects))
	for _, label := range domain.MoneyColumns {
		r, ok := rects[label]
		if !ok {
			continue
		}
		tol := math.Max(d.opts.ExpansionMinPx, d.opts.ExpansionRatio*r.Width())
		spans = append(spans, span{
			rng:  domain.ColumnRange{Label: label, XMin: r.X0 - tol, XMax: r.X1 + tol},
			orig: r,
		})
	}
	sort.SliceStable(spans, func(a, b int) bool { return spans[a].orig.X0 < spans[b].orig.X0 })

	for i := 1; i < len(spans); i++ {
		left, right := &spans[i-1], &spans[i]
		if left.rng.XMax > right.rng.XMin {
			mid := (left.orig.X1 + right.orig.X0) / 2
			left.rng.XMax = mid
			right.rng.XMin = mid
		}
	}

	out := make([]domain.ColumnRange, len(spans))
	for i, s := range spans {
		out[i] = s.rng
	}
	return out
}

// DetectTableEnd scans rows whose center lies below afterY and returns the
// top edge of the first totals row that follows the last item row. Totals
// rows with items below them are carried subtotals, not the table end.
// isItem may be nil, in which case the first totals row ends the table.
func (d *Detector) DetectTableEnd(tokens []domain.Token, afterY float64, isItem func(domain.Row) bool) (float64, bool) {
	endY, found := 0.0, false
	for _, row := range ClusterRows(tokens, d.opts.RowThreshold) {
		if row.YCenter <= afterY {
			continue
		}
		if IsTableEnd(row.Text()) {
			if !found {
				endY, found = row.Top(), true
			}
			continue
		}
		if found && isItem != nil && isItem(row) {
			found = false
		}
	}
	return endY, found
}

// DetectHeuristic is the fallback when no header is found: the three
// right-most vertically aligned clusters of numeric tokens become
// Harga Jual, DPP and PPN from left to right.
func (d *Detector) DetectHeuristic(tokens []domain.Token) (*Header, bool) {
	var numeric []domain.Token
	for _, t := range tokens {
		if normalize.LooksNumeric(t.Text) {
			numeric = append(numeric, t)
		}
	}
	if len(numeric) < len(domain.MoneyColumns) {
		return nil, false
	}

	minMembers := 1
	if distinctRows(numeric, d.opts.RowThreshold) > 1 {
		minMembers = 2
	}

	rights := make([]float64, len(numeric))
	for i, t := range numeric {
		rights[i] = t.BBox.X1
	}
	var clusters [][]int
	for _, g := range geometry.Cluster1D(rights, d.opts.ClusterGapPx) {
		if len(g) >= minMembers {
			clusters = append(clusters, g)
		}
	}
	if len(clusters) < len(domain.MoneyColumns) {
		return nil, false
	}
	// Cluster1D returns groups ordered by right edge, so the tail holds the right-most columns.
	clusters = clusters[len(clusters)-len(domain.MoneyColumns):]

	rects := make(map[domain.ColumnLabel]geometry.Rect, len(clusters))
	firstPage := math.MaxInt
	for i, g := range clusters {
		var r geometry.Rect
		for _, idx := range g {
			r = r.Union(numeric[idx].BBox)
			firstPage = min(firstPage, numeric[idx].Page)
		}
		rects[domain.MoneyColumns[i]] = r
	}
	top := math.Inf(1)
	for _, g := range clusters {
		for _, idx := range g {
			if numeric[idx].Page == firstPage {
				top = math.Min(top, numeric[idx].BBox.Y0)
			}
		}
	}
	return &Header{
		Ranges:  d.expandRanges(rects),
		HeaderY: top - d.opts.RowThreshold,
		Page:    firstPage,
		Source:  domain.SourceHeuristic,
	}, true
}

func distinctRows(tokens []domain.Token, threshold float64) int {
	centers := make([]float64, len(tokens))
	for i := range tokens {
		centers[i] = tokens[i].BBox.CenterY()
	}
	return len(geometry.Cluster1D(centers, threshold))
}
