package engine

import (
	"github.com/bantamhq/gitdesk/internal/watch"
)

// startWatcherLocked watches path and refreshes the change list on every
// event. The previous watcher must already be stopped.
func (e *Engine) startWatcherLocked(path string) {
	w, err := watch.Watch(path)
	if err != nil {
		e.log.WithError(err).WithField("path", path).Warn("file watcher unavailable")
		return
	}
	e.watcher = w
	go e.watchLoop(w)
}

func (e *Engine) stopWatcherLocked() {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Close(); err != nil {
		e.log.WithError(err).Debug("closing file watcher")
	}
	e.watcher = nil
}

func (e *Engine) watchLoop(w *watch.Watcher) {
	for {
		select {
		case <-w.Done():
			return
		case path := <-w.Events():
			e.onFileEvent(w, path)
		}
	}
}

func (e *Engine) onFileEvent(w *watch.Watcher, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Events from a watcher replaced while this one was blocked are stale.
	if e.watcher != w {
		return
	}
	// The running operation refreshes when it completes.
	if e.busy {
		return
	}

	e.log.WithField("path", path).Debug("file changed")
	if err := e.refreshLocked(); err != nil {
		e.log.WithError(err).Debug("refresh after file event failed")
	}
}
