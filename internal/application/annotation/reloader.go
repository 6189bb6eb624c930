package annotation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

const reloadDebounce = 500 * time.Millisecond

// Reloader watches a gazetteer directory and rebuilds the service's extractor
// when term files change.  Editors produce bursts of write events, so reloads
// are debounced.
type Reloader struct {
	service *Service
	watcher *fsnotify.Watcher
	logger  logging.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewReloader watches dir for changes to .yml/.yaml files.
func NewReloader(service *Service, dir string, log logging.Logger) (*Reloader, error) {
	if dir == "" {
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "gazetteer directory required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create filesystem watcher")
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigUnreadableDir, "failed to watch gazetteer directory")
	}

	return &Reloader{
		service: service,
		watcher: watcher,
		logger:  log.Named("gazetteer-reloader"),
	}, nil
}

// Run dispatches watch events until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if !isTermFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			r.scheduleReload(event.Name)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watch error", logging.Err(err))
		}
	}
}

func (r *Reloader) scheduleReload(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(reloadDebounce, func() {
		if err := r.service.Reload(); err != nil {
			// Keep serving the previous dictionary.
			r.logger.Error("reload failed, keeping previous store",
				logging.String("trigger", path),
				logging.Err(err),
			)
			return
		}
	})
}

func (r *Reloader) stopTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
}

// Close stops watching.
func (r *Reloader) Close() error {
	return r.watcher.Close()
}

func isTermFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}
