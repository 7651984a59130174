// Package diag accumulates parse diagnostics and findings. A Builder is
// created per parse and handed to every stage; nothing here is global.
package diag

import (
	"fakturscan/internal/domain"
)

// DefaultTokenCap bounds how many tokens are echoed back in per-page stats.
const DefaultTokenCap = 500

// Builder collects the debug block and findings of a single parse.
type Builder struct {
	tokenCap int
	echoed   int
	debug    domain.Debug
	findings []domain.Finding
}

// New creates a Builder that echoes at most tokenCap tokens.
func New(tokenCap int) *Builder {
	if tokenCap < 0 {
		tokenCap = 0
	}
	return &Builder{
		tokenCap: tokenCap,
		debug:    domain.Debug{PerPageStats: []domain.PageStat{}},
	}
}

func (b *Builder) SetInput(tokenCount, pageCount int) {
	b.debug.TokenCount = tokenCount
	b.debug.PageCount = pageCount
}

func (b *Builder) SetSource(src domain.LayoutSource) { b.debug.Source = src }
func (b *Builder) SetExtractor(name string)          { b.debug.Extractor = name }
func (b *Builder) SetRateSource(src domain.RateSource) {
	b.debug.RateSource = src
}

// Source returns the layout source recorded so far.
func (b *Builder) Source() domain.LayoutSource { return b.debug.Source }

// AddPage records a page outcome. Tokens are echoed until the cap is reached;
// the rest are still parsed but not reported.
func (b *Builder) AddPage(stat domain.PageStat, tokens []domain.Token) {
	if room := b.tokenCap - b.echoed; room > 0 && len(tokens) > 0 {
		n := min(room, len(tokens))
		stat.Tokens = append([]domain.Token(nil), tokens[:n]...)
		b.echoed += n
	}
	b.debug.PerPageStats = append(b.debug.PerPageStats, stat)
}

// Echoed returns how many tokens have been echoed so far.
func (b *Builder) Echoed() int { return b.echoed }

// Add appends a finding.
func (b *Builder) Add(f domain.Finding) {
	b.findings = append(b.findings, f)
}

// Findings returns the findings in the order they were added.
func (b *Builder) Findings() []domain.Finding {
	out := make([]domain.Finding, len(b.findings))
	copy(out, b.findings)
	return out
}

// Debug returns the accumulated debug block.
func (b *Builder) Debug() domain.Debug {
	d := b.debug
	d.PerPageStats = append([]domain.PageStat{}, b.debug.PerPageStats...)
	return d
}
