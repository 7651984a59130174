package extract

import (
	"fmt"

	"go.uber.org/zap"

	"fakturscan/internal/port"
)

// Factory creates an extraction strategy.
type Factory func() port.TokenExtractor

// DefaultOrder is the trial order used when none is configured.
var DefaultOrder = []string{VisionName, PDFTextName, PlainTextName}

var strategies = map[string]Factory{
	VisionName:    func() port.TokenExtractor { return NewVisionExtractor() },
	PDFTextName:   func() port.TokenExtractor { return NewPDFTextExtractor() },
	PlainTextName: func() port.TokenExtractor { return NewPlainTextExtractor() },
}

// Register adds or replaces a strategy factory. It is meant to be called
// during program initialisation.
func Register(name string, factory Factory) {
	strategies[name] = factory
}

// New creates a registered strategy by name.
func New(name string) (port.TokenExtractor, error) {
	factory, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown extraction strategy: %s", name)
	}
	return factory(), nil
}

// NewChainFromNames builds a Chain from strategy names. An empty list uses DefaultOrder.
func NewChainFromNames(logger *zap.Logger, names []string) (*Chain, error) {
	if len(names) == 0 {
		names = DefaultOrder
	}
	list := make([]port.TokenExtractor, 0, len(names))
	for _, name := range names {
		s, err := New(name)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return NewChain(logger, list...), nil
}
