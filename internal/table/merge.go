package table

import (
	"math"
	"regexp"
	"strings"

	"fakturscan/internal/domain"
	"fakturscan/internal/layout"
)

var (
	// alwaysMergeRE marks discount and luxury-tax detail rows whose numbers
	// belong to the item above. It is matched against description text only.
	alwaysMergeRE    = regexp.MustCompile(`(?i)ppn\s*bm|potongan|x\s*1,00`)
	potonganRE       = regexp.MustCompile(`(?i)potongan(?:\s+harga)?`)
	ppnbmRE          = regexp.MustCompile(`(?i)ppn\s*bm(?:\s*\([^)]*\))?`)
	leadingOrdinalRE = regexp.MustCompile(`^\d{1,3}[.)]?\s+`)
)

// AssignedRow pairs a clustered row with its column assignment.
type AssignedRow struct {
	Row        domain.Row
	Assignment Assignment
}

// Candidate is a line item before numeric normalization.
type Candidate struct {
	Page        int
	YCenter     float64
	Description string
	Raw         domain.MoneyFields[string]
	// RawPotongan and RawPPnBM are captured from merged detail rows.
	RawPotongan   string
	RawPPnBM      string
	MinConfidence float64
}

// MergeWraparounds folds continuation rows into the preceding candidate.
// A row without money tokens continues the previous description. A row
// whose description carries a discount/luxury-tax keyword is merged as a
// detail row unless it fills two or more money columns, in which case it is
// an item of its own. Continuations with no preceding candidate are dropped.
func MergeWraparounds(rows []AssignedRow) []Candidate {
	var out []Candidate
	for _, ar := range rows {
		text := ar.Row.Text()
		detail := isDetailRow(ar.Assignment)
		if detail || !ar.Assignment.HasMoney() {
			if len(out) == 0 {
				continue
			}
			prev := &out[len(out)-1]
			if detail {
				prev.appendDescription(text)
				prev.captureDetail(text)
			} else {
				prev.appendDescription(ar.Assignment.DescriptionText())
			}
			continue
		}
		out = append(out, newCandidate(ar))
	}
	return out
}

func isDetailRow(a Assignment) bool {
	return len(a.Money) < 2 && alwaysMergeRE.MatchString(a.DescriptionText())
}

func newCandidate(ar AssignedRow) Candidate {
	c := Candidate{
		Page:          ar.Row.Page,
		YCenter:       ar.Row.YCenter,
		Description:   leadingOrdinalRE.ReplaceAllString(ar.Assignment.DescriptionText(), ""),
		MinConfidence: 1,
	}
	for _, label := range domain.MoneyColumns {
		t, ok := ar.Assignment.Money[label]
		if !ok {
			continue
		}
		c.Raw.Set(label, t.Text)
		// zero means the extractor did not report a confidence
		if t.Confidence > 0 {
			c.MinConfidence = math.Min(c.MinConfidence, t.Confidence)
		}
	}
	return c
}

func (c *Candidate) appendDescription(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if c.Description == "" {
		c.Description = s
		return
	}
	c.Description += " " + s
}

func (c *Candidate) captureDetail(text string) {
	if loc := ppnbmRE.FindStringIndex(text); loc != nil {
		if amt, ok := layout.TrailingAmount(text[loc[1]:]); ok {
			c.RawPPnBM = amt
		}
		return
	}
	if loc := potonganRE.FindStringIndex(text); loc != nil {
		if amt, ok := layout.TrailingAmount(text[loc[1]:]); ok {
			c.RawPotongan = amt
		}
	}
}
