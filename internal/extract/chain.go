package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fakturscan/internal/domain"
	"fakturscan/internal/port"
)

// Chain tries strategies in order and returns the first extraction that
// holds tokens or text. It implements port.TokenExtractor.
type Chain struct {
	strategies []port.TokenExtractor
	logger     *zap.Logger
}

// NewChain creates a Chain from an ordered list of strategies.
func NewChain(logger *zap.Logger, strategies ...port.TokenExtractor) *Chain {
	return &Chain{strategies: strategies, logger: logger}
}

func (c *Chain) Name() string { return "chain" }

// Strategies returns the strategy names in trial order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

func (c *Chain) Extract(ctx context.Context, input port.ExtractInput) (*port.Extraction, error) {
	var lastErr error
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := s.Extract(ctx, input)
		switch {
		case errors.Is(err, ErrNotApplicable):
			continue
		case err != nil:
			c.logger.Warn("extract.Chain: strategy failed",
				zap.String("strategy", s.Name()),
				zap.String("document", input.Name),
				zap.Error(err),
			)
			lastErr = err
			continue
		case out.Empty():
			c.logger.Debug("extract.Chain: strategy produced nothing",
				zap.String("strategy", s.Name()),
				zap.String("document", input.Name),
			)
			continue
		}

		out.Extractor = s.Name()
		return out, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoExtractor, lastErr)
	}
	return nil, domain.ErrNoExtractor
}
