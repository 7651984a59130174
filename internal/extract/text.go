package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"fakturscan/internal/port"
)

// PlainTextName identifies the plain text strategy.
const PlainTextName = "plain-text"

// PlainTextExtractor passes UTF-8 text through for text-only summary parsing.
// Form feeds separate pages.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a PlainTextExtractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Name() string { return PlainTextName }

func (e *PlainTextExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.Extraction, error) {
	if !isPlainText(input) {
		return nil, ErrNotApplicable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := string(input.Data)
	return &port.Extraction{
		Text:      strings.ReplaceAll(text, "\f", "\n"),
		PageCount: strings.Count(strings.TrimRight(text, "\f\n "), "\f") + 1,
	}, nil
}

func isPlainText(input port.ExtractInput) bool {
	switch {
	case strings.HasPrefix(input.ContentType, "text/"):
		return utf8.Valid(input.Data)
	case input.ContentType == "application/pdf", strings.Contains(input.ContentType, "json"):
		return false
	case bytes.HasPrefix(input.Data, []byte("%PDF-")):
		return false
	}
	return utf8.Valid(input.Data) && bytes.IndexByte(input.Data, 0) < 0
}
