package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"fakturscan/internal/extract"
	"fakturscan/internal/service"
)

// Processor parses the documents a watcher emits and writes each result
// into its output directory as <file name>.result.json.
type Processor struct {
	worker   *service.BatchWorker
	outDir   string
	maxBytes int64
	logger   *zap.Logger
}

// NewProcessor creates a Processor. maxBytes <= 0 disables the size check.
func NewProcessor(worker *service.BatchWorker, outDir string, maxBytes int64, logger *zap.Logger) *Processor {
	return &Processor{worker: worker, outDir: outDir, maxBytes: maxBytes, logger: logger}
}

// Run processes paths until the channel closes or ctx is done. It returns the
// number of results written.
func (p *Processor) Run(ctx context.Context, paths <-chan string) (int, error) {
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating output dir: %w", err)
	}

	jobs := make(chan service.BatchJob)
	go func() {
		defer close(jobs)
		i := 0
		for path := range paths {
			input, err := p.load(path)
			if err != nil {
				p.logger.Warn("ingest.Processor: skipping file", zap.String("path", path), zap.Error(err))
				continue
			}
			select {
			case jobs <- service.BatchJob{Index: i, Input: *input}:
				i++
			case <-ctx.Done():
				return
			}
		}
	}()

	written := 0
	for res := range p.worker.Run(ctx, jobs) {
		if res.Err != nil {
			continue
		}
		out, err := p.write(res.Name, res.Document)
		if err != nil {
			p.logger.Error("ingest.Processor: writing result failed", zap.String("document", res.Name), zap.Error(err))
			continue
		}
		written++
		p.logger.Info("ingest.Processor: wrote result",
			zap.String("document", res.Name),
			zap.String("output", out),
			zap.String("status", string(res.Document.Result.Status)),
			zap.Duration("elapsed", res.Elapsed),
		)
	}
	return written, ctx.Err()
}

func (p *Processor) load(path string) (*service.UploadDocumentInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if p.maxBytes > 0 && info.Size() > p.maxBytes {
		return nil, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), p.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &service.UploadDocumentInput{
		Name:        filepath.Base(path),
		ContentType: extract.ContentTypeFor(path),
		Data:        data,
	}, nil
}

func (p *Processor) write(name string, doc *service.ParsedDocument) (string, error) {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	out := filepath.Join(p.outDir, name+ResultSuffix)
	if err := os.WriteFile(out, append(payload, '\n'), 0o644); err != nil {
		return "", err
	}
	return out, nil
}
