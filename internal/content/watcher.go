package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher следит за каталогом контента и перезагружает его после изменений.
// При ошибке загрузки остается предыдущая библиотека.
type Watcher struct {
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	dir       string
	store     *Store
	logger    *zap.Logger
	debounce  time.Duration
	lastEvent time.Time
	pending   bool
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewWatcher creates a watcher for dir that reloads into store.
func NewWatcher(dir string, store *Store, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		dir:      dir,
		store:    store,
		logger:   logger.Named("ContentWatcher"),
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce overrides the quiet period before a reload. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounce = d
	w.mu.Unlock()
}

// Start begins watching. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	graphs := filepath.Join(w.dir, graphsDir)
	if info, err := os.Stat(graphs); err == nil && info.IsDir() {
		if err := w.watcher.Add(graphs); err != nil {
			w.logger.Warn("Failed to watch graphs directory", zap.String("dir", graphs), zap.Error(err))
		}
	}
	w.logger.Info("Watching content directory", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	w.closeOnce.Do(func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Error closing fsnotify watcher", zap.Error(err))
		}
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("fsnotify error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	ext := strings.ToLower(filepath.Ext(event.Name))
	if ext != ".yaml" && ext != ".yml" {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("Content file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	ready := w.pending && time.Since(w.lastEvent) >= w.debounce
	if ready {
		w.pending = false
	}
	w.mu.Unlock()
	if ready {
		_ = w.Reload()
	}
}

// Reload loads the directory now and swaps the store on success.
func (w *Watcher) Reload() error {
	lib, issues, err := Load(os.DirFS(w.dir))
	if err != nil {
		contentReloads.WithLabelValues("invalid").Inc()
		fields := []zap.Field{zap.String("dir", w.dir), zap.Error(err)}
		for _, issue := range Errors(issues) {
			w.logger.Warn("Content issue", zap.String("issue", issue.String()))
		}
		w.logger.Error("Content reload failed, keeping previous revision", append(fields, zap.String("revision", w.store.Library().Revision()))...)
		return err
	}
	old := w.store.Swap(lib)
	contentReloads.WithLabelValues("ok").Inc()
	w.logger.Info("Content reloaded",
		zap.String("old_revision", old.Revision()),
		zap.String("revision", lib.Revision()),
		zap.Int("warnings", len(issues)),
	)
	return nil
}
