package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last change before a reload.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads path every time it changes until ctx is cancelled. Bursts of
// events within debounce trigger one reload. Reloads run one at a time;
// changes seen during a reload queue a single follow-up reload. Reload
// failures are logged and do not stop the watch. onLoad, if set, receives
// each reload result. Watch returns after the last reload finished.
func (l *Loader) Watch(ctx context.Context, path string, debounce time.Duration, onLoad func(Report, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	// Editors replace files by rename, which drops a watch on the file
	// itself, so watch the directory and filter by name.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	l.logger.Info("Watching memo file", zap.String("file", abs), zap.Duration("debounce", debounce))

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	reload := func() {
		rep, err := l.LoadFile(ctx, abs)
		if err != nil {
			l.logger.Error("Reload failed", zap.String("file", abs), zap.Error(err))
		}
		if onLoad != nil {
			onLoad(rep, err)
		}
	}
	d := newDebouncer(debounce)
	defer d.stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		serveReloads(ctx, d.C, reload)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				l.logger.Debug("Memo file changed", zap.String("op", ev.Op.String()))
				d.trigger()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

// serveReloads runs reload for each tick, sequentially, until ctx is done.
func serveReloads(ctx context.Context, ticks <-chan struct{}, reload func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			reload()
		}
	}
}

// debouncer sends on C once triggers stop arriving for delay. C holds at
// most one pending tick, so triggers during a slow consumer coalesce.
type debouncer struct {
	C chan struct{}

	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{C: make(chan struct{}, 1), delay: delay}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	select {
	case d.C <- struct{}{}:
	default:
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
