package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/romdo/go-debounce"
)

const (
	changeDebounce = 100 * time.Millisecond
	changeMaxWait  = time.Second
)

// Watcher reports writes to configuration files. Editors often emit several
// events per save, so notifications are debounced.
type Watcher struct {
	watcher   *fsnotify.Watcher
	callbacks []func()
	mu        sync.RWMutex
	watched   map[string]context.Context
	notify    func()
	cancel    func()
	stopCh    chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		watcher: fsWatcher,
		watched: make(map[string]context.Context),
		stopCh:  make(chan struct{}),
	}
	w.notify, w.cancel = debounce.NewWithMaxWait(changeDebounce, changeMaxWait, w.notifyCallbacks)
	return w, nil
}

// Watch starts watching path until ctx ends or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to watch file: %w", err)
	}
	w.mu.Lock()
	w.watched[absPath] = ctx
	w.mu.Unlock()
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
			case <-w.stopCh:
			}
			w.mu.Lock()
			delete(w.watched, absPath)
			w.mu.Unlock()
			_ = w.watcher.Remove(absPath)
		}()
	}
	w.startOnce.Do(func() {
		go w.handleEvents(ctx)
	})
	return nil
}

func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

func (w *Watcher) handleEvents(ctx context.Context) {
	log := logger.FromContext(ctx)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.mu.RLock()
			pathCtx, watched := w.watched[event.Name]
			w.mu.RUnlock()
			if !watched || pathCtx.Err() != nil {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.notify()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("configuration watcher error", "error", err)
		}
	}
}

func (w *Watcher) notifyCallbacks() {
	w.mu.RLock()
	callbacks := make([]func(), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback()
		}
	}
}

// Close stops the watcher and drops pending notifications.
func (w *Watcher) Close() error {
	var closeErr error
	w.closeOnce.Do(func() {
		close(w.stopCh)
		w.cancel()
		if err := w.watcher.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close watcher: %w", err)
		}
	})
	return closeErr
}
