package table

import (
	"math"

	"fakturscan/internal/diag"
	"fakturscan/internal/domain"
	"fakturscan/internal/layout"
)

// WalkResult is the table content gathered across all pages.
type WalkResult struct {
	Candidates []Candidate
	Source     domain.LayoutSource
	// HeaderComplete is true when all three money columns came from header keywords.
	HeaderComplete bool
	// Declared holds the raw totals printed below the table end, keyed by field.
	Declared map[layout.SummaryField]string
}

// Walker turns the tokens of a whole document into line item candidates.
type Walker struct {
	detector *layout.Detector
	opts     Options
}

// NewWalker creates a Walker.
func NewWalker(detector *layout.Detector, opts Options) *Walker {
	return &Walker{detector: detector, opts: opts}
}

type pageState struct {
	page   int
	tokens []domain.Token
	rows   []domain.Row
	stat   domain.PageStat
}

// Walk processes pages in order. Header detection runs on every page; a page
// without its own header reuses the previous page's ranges unchanged. When no
// page has a header the heuristic runs over all tokens. The table ends on the
// last page that carries a totals row, at the first totals row below that
// page's last item. Other totals rows are carried subtotals and are skipped.
// Page stats are recorded on d.
func (w *Walker) Walk(tokens []domain.Token, pageCount int, d *diag.Builder) (*WalkResult, error) {
	threshold := w.detector.Options().RowThreshold
	pages := splitPages(tokens, pageCount, threshold)

	headers := make(map[int]*layout.Header)
	for _, ps := range pages {
		if h, ok := w.detector.DetectHeader(ps.tokens); ok {
			headers[ps.page] = h
		}
	}

	res := &WalkResult{
		Source:         domain.SourceHeaderDetected,
		HeaderComplete: true,
		Declared:       make(map[layout.SummaryField]string),
	}
	if len(headers) == 0 {
		h, ok := w.detector.DetectHeuristic(tokens)
		if !ok {
			for _, ps := range pages {
				ps.stat.RowsFound = len(ps.rows)
				d.AddPage(ps.stat, ps.tokens)
			}
			return nil, domain.ErrLayoutNotDetected
		}
		headers[max(h.Page, 1)] = h
		res.Source = domain.SourceHeuristic
		res.HeaderComplete = false
	}

	startPage := math.MaxInt
	for p := range headers {
		startPage = min(startPage, p)
	}

	endPage, endY, hasEnd := len(pages), 0.0, false
	for i := len(pages) - 1; i >= 0 && pages[i].page >= startPage; i-- {
		ps := pages[i]
		after := math.Inf(-1)
		if h, ok := headers[ps.page]; ok {
			after = h.HeaderY
		}
		ranges := headerAt(headers, ps.page).Ranges
		if y, ok := w.detector.DetectTableEnd(ps.tokens, after, w.itemRow(ranges)); ok {
			endPage, endY, hasEnd = ps.page, y, true
			break
		}
	}

	var current *layout.Header
	var assigned []AssignedRow
	for i := range pages {
		ps := &pages[i]
		if ps.page < startPage || ps.page > endPage {
			ps.stat.SkippedRows = len(ps.rows)
			continue
		}

		top := math.Inf(-1)
		if h, ok := headers[ps.page]; ok {
			current = h
			top = h.HeaderY
			ps.stat.HeaderDetected = h.Source == domain.SourceHeaderDetected
		} else {
			ps.stat.StickyColumns = true
		}
		bottom := math.Inf(1)
		if ps.page == endPage && hasEnd {
			bottom = endY
			y := endY
			ps.stat.TableEndY = &y
		}

		for _, row := range ps.rows {
			switch {
			case row.YCenter <= top:
				continue
			case row.Top() >= bottom:
				w.captureDeclared(row, res.Declared)
				continue
			case layout.IsTableEnd(row.Text()):
				ps.stat.SkippedRows++
				continue
			}
			ps.stat.RowsFound++
			assigned = append(assigned, AssignedRow{
				Row:        row,
				Assignment: AssignColumns(row, current.Ranges, w.opts),
			})
		}
	}

	res.Candidates = MergeWraparounds(assigned)
	started := make(map[int]int)
	for _, c := range res.Candidates {
		started[c.Page]++
	}
	for _, ps := range pages {
		ps.stat.ItemsStarted = started[ps.page]
		d.AddPage(ps.stat, ps.tokens)
	}
	return res, nil
}

// headerAt returns the header in effect on page: its own, or the closest one
// on an earlier page. The caller guarantees page >= the first header page.
func headerAt(headers map[int]*layout.Header, page int) *layout.Header {
	best := 0
	for p := range headers {
		if p <= page && p > best {
			best = p
		}
	}
	return headers[best]
}

// itemRow reports whether a row fills two or more money columns.
func (w *Walker) itemRow(ranges []domain.ColumnRange) func(domain.Row) bool {
	return func(row domain.Row) bool {
		return len(AssignColumns(row, ranges, w.opts).Money) >= 2
	}
}

// captureDeclared keeps the first labelled amount per total in the totals section.
func (w *Walker) captureDeclared(row domain.Row, declared map[layout.SummaryField]string) {
	text := row.Text()
	field, end, ok := layout.ClassifySummaryLine(text)
	if !ok {
		return
	}
	if _, seen := declared[field]; seen {
		return
	}
	if amt, ok := layout.TrailingAmount(text[end:]); ok {
		declared[field] = amt
	}
}

// splitPages groups tokens by page. Pages without tokens are kept so the
// stats cover the whole document; a non-positive page number counts as page 1.
func splitPages(tokens []domain.Token, pageCount int, threshold float64) []pageState {
	byPage := make(map[int][]domain.Token)
	last := max(pageCount, 1)
	for _, t := range tokens {
		p := max(t.Page, 1)
		t.Page = p
		byPage[p] = append(byPage[p], t)
		last = max(last, p)
	}

	out := make([]pageState, 0, last)
	for p := 1; p <= last; p++ {
		out = append(out, pageState{
			page:   p,
			tokens: byPage[p],
			rows:   layout.ClusterRows(byPage[p], threshold),
			stat:   domain.PageStat{Page: p},
		})
	}
	return out
}
