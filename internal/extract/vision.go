package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"fakturscan/internal/domain"
	"fakturscan/internal/geometry"
	"fakturscan/internal/port"
)

// VisionName identifies the Vision JSON strategy.
const VisionName = "vision-json"

// VisionExtractor decodes OCR output that an upstream engine already produced.
// Two shapes are accepted: the canonical {page_count, text, tokens} document
// and a Google Vision annotate response ({responses: [{textAnnotations}]}),
// where each response is one page.
type VisionExtractor struct{}

// NewVisionExtractor creates a VisionExtractor.
func NewVisionExtractor() *VisionExtractor {
	return &VisionExtractor{}
}

func (e *VisionExtractor) Name() string { return VisionName }

type visionDocument struct {
	PageCount int              `json:"page_count"`
	Text      string           `json:"text"`
	Tokens    []domain.Token   `json:"tokens"`
	Responses []visionResponse `json:"responses"`
}

type visionResponse struct {
	TextAnnotations    []textAnnotation `json:"textAnnotations"`
	FullTextAnnotation *struct {
		Text string `json:"text"`
	} `json:"fullTextAnnotation"`
}

type textAnnotation struct {
	Description  string  `json:"description"`
	Confidence   float64 `json:"confidence"`
	BoundingPoly struct {
		Vertices []vertex `json:"vertices"`
	} `json:"boundingPoly"`
}

type vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (e *VisionExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.Extraction, error) {
	if !looksJSON(input) {
		return nil, ErrNotApplicable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc visionDocument
	if err := json.Unmarshal(input.Data, &doc); err != nil {
		return nil, newStrategyError(VisionName, fmt.Errorf("decoding json: %w", err))
	}

	switch {
	case len(doc.Tokens) > 0:
		return canonicalExtraction(doc), nil
	case len(doc.Responses) > 0:
		return annotateExtraction(doc.Responses), nil
	case strings.TrimSpace(doc.Text) != "":
		return &port.Extraction{Text: doc.Text, PageCount: max(doc.PageCount, 1)}, nil
	}
	return nil, newStrategyError(VisionName, domain.ErrUnsupportedFormat)
}

func canonicalExtraction(doc visionDocument) *port.Extraction {
	out := &port.Extraction{Text: doc.Text, PageCount: doc.PageCount}
	out.Tokens = make([]domain.Token, 0, len(doc.Tokens))
	for _, t := range doc.Tokens {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		t.BBox = geometry.NewRect(t.BBox.X0, t.BBox.Y0, t.BBox.X1, t.BBox.Y1)
		t.Page = max(t.Page, 1)
		out.PageCount = max(out.PageCount, t.Page)
		out.Tokens = append(out.Tokens, t)
	}
	return out
}

// annotateExtraction converts Vision textAnnotations. The first annotation of
// a response always covers the whole page text and is kept as text only, so a
// response holding nothing else yields text without tokens.
func annotateExtraction(responses []visionResponse) *port.Extraction {
	out := &port.Extraction{PageCount: len(responses)}
	var pages []string
	for i, resp := range responses {
		page := i + 1
		words := resp.TextAnnotations
		switch {
		case resp.FullTextAnnotation != nil:
			pages = append(pages, resp.FullTextAnnotation.Text)
		case len(words) > 0:
			pages = append(pages, words[0].Description)
		}
		if len(words) > 0 {
			words = words[1:]
		}
		for _, w := range words {
			if strings.TrimSpace(w.Description) == "" || len(w.BoundingPoly.Vertices) == 0 {
				continue
			}
			out.Tokens = append(out.Tokens, domain.Token{
				Text:       w.Description,
				BBox:       polyRect(w.BoundingPoly.Vertices),
				Page:       page,
				Confidence: w.Confidence,
			})
		}
	}
	out.Text = strings.Join(pages, "\n")
	return out
}

func polyRect(vs []vertex) geometry.Rect {
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for _, v := range vs {
		x0, x1 = math.Min(x0, v.X), math.Max(x1, v.X)
		y0, y1 = math.Min(y0, v.Y), math.Max(y1, v.Y)
	}
	return geometry.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func looksJSON(input port.ExtractInput) bool {
	if strings.Contains(input.ContentType, "json") {
		return true
	}
	trimmed := bytes.TrimLeft(input.Data, " \t\r\n\uFEFF")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
