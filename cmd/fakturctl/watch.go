package main

import (
	"context"
	"errors"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"fakturscan/internal/config"
	"fakturscan/internal/ingest"
	"fakturscan/internal/service"
)

func runWatch(ctx context.Context, cfg *config.Config, zl *zap.Logger, args []string) error {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	dirs := fs.StringSliceP("dir", "d", nil, "directory to watch (repeatable)")
	out := fs.StringP("out", "o", "", "directory for result files (default: the first watched directory)")
	initial := fs.Bool("initial-scan", false, "also parse files already present")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(*dirs) == 0 {
		return errors.New("watch: --dir is required")
	}
	outDir := *out
	if outDir == "" {
		outDir = (*dirs)[0]
	}

	svc, err := newLocalService(cfg, zl)
	if err != nil {
		return err
	}
	worker := service.NewBatchWorker(svc, service.BatchConfig{
		Concurrency: cfg.Batch.Concurrency,
		JobTimeout:  cfg.Batch.JobTimeout(),
	}, zl)

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       *dirs,
		InitialScan: *initial,
		Debounce:    cfg.Batch.Debounce(),
	}, zl)
	if err != nil {
		return err
	}
	go func() {
		for err := range errs {
			zl.Warn("fakturctl: watcher reported an error", zap.Error(err))
		}
	}()

	zl.Info("fakturctl: watching", zap.Strings("dirs", *dirs), zap.String("out", outDir))
	n, err := ingest.NewProcessor(worker, outDir, cfg.Server.MaxUploadMB<<20, zl).Run(ctx, paths)
	zl.Info("fakturctl: watch stopped", zap.Int("results", n))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
