package port

import (
	"context"
	"strings"

	"fakturscan/internal/domain"
)

// ExtractInput is a raw document handed to an extraction strategy.
type ExtractInput struct {
	Data        []byte
	ContentType string
	Name        string
}

// Extraction is what a strategy recovered from a document. Either Tokens or
// Text is populated; Vision responses carry both.
type Extraction struct {
	Tokens    []domain.Token
	Text      string
	PageCount int
	Extractor string
}

// Empty reports whether the extraction holds nothing to parse.
func (e *Extraction) Empty() bool {
	if e == nil {
		return true
	}
	if len(e.Tokens) > 0 {
		return false
	}
	return strings.TrimSpace(e.Text) == ""
}

// TokenExtractor decodes upstream OCR output or a document text layer into tokens.
type TokenExtractor interface {
	Name() string
	Extract(ctx context.Context, input ExtractInput) (*Extraction, error)
}
