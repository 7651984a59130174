package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"fakturscan/internal/config"
	"fakturscan/internal/domain"
	"fakturscan/internal/export"
	"fakturscan/internal/extract"
	"fakturscan/internal/parser"
	"fakturscan/internal/service"
)

// newLocalService builds a parse service without persistence.
func newLocalService(cfg *config.Config, zl *zap.Logger) (service.ParseService, error) {
	chain, err := extract.NewChainFromNames(zl, cfg.Extract.Order)
	if err != nil {
		return nil, err
	}
	return service.NewParseService(service.ParseServiceConfig{
		Parser:    parser.New(cfg.Parser.Options()),
		Extractor: chain,
	}, zl), nil
}

func runParse(ctx context.Context, cfg *config.Config, zl *zap.Logger, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("parse", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	typeCode := fs.StringP("type", "t", "", "invoice type code (010, 020, ...); detected from the text when empty")
	formatName := fs.StringP("format", "f", "json", "output format: json, csv or xlsx")
	output := fs.StringP("output", "o", "", "output file (default stdout)")
	concurrency := fs.IntP("concurrency", "c", cfg.Batch.Concurrency, "documents parsed at once")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return errors.New("parse: at least one file is required")
	}

	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	if format == domain.ExportFormatXLSX && *output == "" {
		return errors.New("parse: xlsx output needs -o")
	}

	inputs := make([]service.UploadDocumentInput, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		inputs = append(inputs, service.UploadDocumentInput{
			Name:            filepath.Base(path),
			ContentType:     extract.ContentTypeFor(path),
			Data:            data,
			InvoiceTypeCode: *typeCode,
		})
	}

	svc, err := newLocalService(cfg, zl)
	if err != nil {
		return err
	}
	worker := service.NewBatchWorker(svc, service.BatchConfig{
		Concurrency: *concurrency,
		JobTimeout:  cfg.Batch.JobTimeout(),
	}, zl)

	var docs []export.Document
	failed := 0
	for _, res := range worker.ParseAll(ctx, inputs) {
		if res.Err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", res.Name, res.Err)
			continue
		}
		docs = append(docs, export.Document{Name: res.Name, Result: res.Document.Result})
	}

	if len(docs) > 0 {
		if err := writeOutput(*output, stdout, format, docs); err != nil {
			return err
		}
	}
	if failed > 0 {
		return errFailures
	}
	return nil
}

func writeOutput(path string, stdout io.Writer, format domain.ExportFormat, docs []export.Document) error {
	if path == "" {
		return export.Write(stdout, format, docs)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(f, format, docs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
