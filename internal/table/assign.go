package table

import (
	"math"
	"regexp"
	"strings"

	"fakturscan/internal/domain"
	"fakturscan/internal/normalize"
)

// Options tunes column assignment.
type Options struct {
	MinOverlapRatio       float64
	DescriptionGuardRatio float64
}

// DefaultOptions returns the standard assignment settings.
func DefaultOptions() Options {
	return Options{
		MinOverlapRatio:       0.10,
		DescriptionGuardRatio: 0.9,
	}
}

const ratioEpsilon = 1e-9

var thousandsGroupRE = regexp.MustCompile(`^\d{3}(?:[.,]\d+)?$`)

// Assignment is the outcome of placing one row's tokens into columns.
type Assignment struct {
	Description []domain.Token
	Money       map[domain.ColumnLabel]domain.Token
}

// HasMoney reports whether any money column received a token.
func (a Assignment) HasMoney() bool {
	return len(a.Money) > 0
}

// DescriptionText joins the description tokens with spaces.
func (a Assignment) DescriptionText() string {
	parts := make([]string, len(a.Description))
	for i, t := range a.Description {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// DescriptionRange is everything left of the leftmost money column's lower
// bound scaled by the guard ratio.
func DescriptionRange(ranges []domain.ColumnRange, guardRatio float64) domain.ColumnRange {
	left := math.Inf(1)
	for _, r := range ranges {
		if r.Label != domain.ColumnDescription && r.XMin < left {
			left = r.XMin
		}
	}
	if math.IsInf(left, 1) {
		left = 0
	}
	return domain.ColumnRange{Label: domain.ColumnDescription, XMin: 0, XMax: left * guardRatio}
}

// AssignColumns places each token of row into a money column or the
// description. A token ending left of the description guard is always
// description, even when it looks numeric. When several tokens land in the
// same money column the right-most one wins.
func AssignColumns(row domain.Row, ranges []domain.ColumnRange, opts Options) Assignment {
	out := Assignment{Money: make(map[domain.ColumnLabel]domain.Token)}
	guard := DescriptionRange(ranges, opts.DescriptionGuardRatio).XMax

	buckets := make(map[domain.ColumnLabel][]domain.Token)
	for _, t := range row.Tokens {
		if t.BBox.X1 < guard {
			out.Description = append(out.Description, t)
			continue
		}
		label, ok := bestColumn(t, ranges, opts.MinOverlapRatio)
		if !ok {
			out.Description = append(out.Description, t)
			continue
		}
		if !normalize.LooksNumeric(t.Text) {
			if !normalize.IsCurrencyMarker(t.Text) {
				out.Description = append(out.Description, t)
			}
			continue
		}
		buckets[label] = append(buckets[label], t)
	}

	for _, label := range domain.MoneyColumns {
		toks := buckets[label]
		if len(toks) == 0 {
			continue
		}
		groups := joinFragments(toks)
		out.Money[label] = groups[len(groups)-1]
	}
	return out
}

// bestColumn returns the money column with the largest overlap ratio above
// minRatio; equal ratios go to the column whose center is closest.
func bestColumn(t domain.Token, ranges []domain.ColumnRange, minRatio float64) (domain.ColumnLabel, bool) {
	var best domain.ColumnLabel
	bestRatio, bestDist := 0.0, math.Inf(1)
	found := false
	for _, r := range ranges {
		if r.Label == domain.ColumnDescription {
			continue
		}
		ratio := t.BBox.OverlapRatio(r.XMin, r.XMax)
		if ratio <= minRatio {
			continue
		}
		dist := math.Abs(t.BBox.CenterX() - r.Center())
		better := !found ||
			ratio > bestRatio+ratioEpsilon ||
			(math.Abs(ratio-bestRatio) <= ratioEpsilon && dist < bestDist)
		if better {
			best, bestRatio, bestDist, found = r.Label, ratio, dist, true
		}
	}
	return best, found
}

// joinFragments re-joins amounts that OCR split at thousands spaces
// ("1 234 567,89"). Tokens must already be ordered left to right.
func joinFragments(toks []domain.Token) []domain.Token {
	out := []domain.Token{toks[0]}
	for _, t := range toks[1:] {
		cur := &out[len(out)-1]
		gap := t.BBox.X0 - cur.BBox.X1
		maxGap := math.Max(cur.BBox.Height(), t.BBox.Height())
		if thousandsGroupRE.MatchString(t.Text) && endsWithDigit(cur.Text) && gap <= maxGap {
			cur.Text += " " + t.Text
			cur.BBox = cur.BBox.Union(t.BBox)
			cur.Confidence = math.Min(cur.Confidence, t.Confidence)
			continue
		}
		out = append(out, t)
	}
	return out
}

func endsWithDigit(s string) bool {
	return s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9'
}
