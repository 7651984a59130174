// Package ingest watches directories for new invoice documents and feeds
// them to the parse service.
package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ResultSuffix marks files written by the ingest Processor. They are never
// picked up again.
const ResultSuffix = ".result.json"

// DefaultExts are the extensions picked up when WatchConfig.AllowedExts is nil
// (lowercase, without '.').
var DefaultExts = map[string]struct{}{
	"json": {},
	"pdf":  {},
	"txt":  {},
}

// WatchConfig configures StartWatcher.
type WatchConfig struct {
	Roots       []string // watched recursively
	AllowedExts map[string]struct{}
	InitialScan bool          // emit files already present under Roots
	Debounce    time.Duration // a path is emitted once it has been quiet this long
}

// StartWatcher emits the paths of created or written documents under the
// configured roots. Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *zap.Logger) (<-chan string, <-chan error, error) {
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = DefaultExts
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && allowed(path, cfg.AllowedExts) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string, 64)
	errCh := make(chan error, 1)
	go loop(ctx, w, cfg, initial, evCh, errCh, logger)
	return evCh, errCh, nil
}

func loop(ctx context.Context, w *fsnotify.Watcher, cfg WatchConfig, initial []string, evCh chan<- string, errCh chan<- error, logger *zap.Logger) {
	defer close(evCh)
	defer close(errCh)
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("ingest.Watcher: close failed", zap.Error(err))
		}
	}()

	emit := func(path string) bool {
		select {
		case evCh <- path:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for _, p := range initial {
		if !emit(p) {
			return
		}
	}

	pending := make(map[string]time.Time)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	armed := false

	for {
		select {
		case <-ctx.Done():
			return

		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if e.Has(fsnotify.Create) {
				if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
					if err := w.Add(e.Name); err != nil {
						logger.Warn("ingest.Watcher: failed to watch new directory",
							zap.String("path", e.Name), zap.Error(err))
					}
					continue
				}
			}
			if !allowed(e.Name, cfg.AllowedExts) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
				continue
			}
			if cfg.Debounce <= 0 {
				if !emit(e.Name) {
					return
				}
				continue
			}
			pending[e.Name] = time.Now()
			if !armed {
				timer.Reset(cfg.Debounce)
				armed = true
			}

		case <-timer.C:
			armed = false
			now := time.Now()
			var next time.Duration
			for path, at := range pending {
				if wait := cfg.Debounce - now.Sub(at); wait > 0 {
					if next == 0 || wait < next {
						next = wait
					}
					continue
				}
				delete(pending, path)
				if _, err := os.Stat(path); err != nil {
					continue
				}
				if !emit(path) {
					return
				}
			}
			if len(pending) > 0 {
				timer.Reset(next)
				armed = true
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Error("ingest.Watcher: watcher error", zap.Error(err))
			select {
			case errCh <- err:
			default:
			}
		}
	}
}

func allowed(path string, exts map[string]struct{}) bool {
	if strings.HasSuffix(strings.ToLower(path), ResultSuffix) {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := exts[ext]
	return ok
}
