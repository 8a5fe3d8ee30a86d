// Package watch reports filesystem activity inside a repository worktree.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	logger "github.com/sirupsen/logrus"
)

// gitFiles are the entries of .git whose changes alter the working-tree
// status as seen from outside.
var gitFiles = map[string]bool{
	"HEAD":  true,
	"index": true,
}

// Watcher delivers one value on Events per relevant filesystem event.
// Bursts are not coalesced.
type Watcher struct {
	root    string
	gitDir  string
	events  chan string
	done    chan struct{}
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	paths map[string]struct{}
	once  sync.Once
}

// Watch starts watching the worktree at root, including new
// subdirectories as they appear. The .git directory is only watched for
// HEAD and index changes.
func Watch(root string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    root,
		gitDir:  filepath.Join(root, ".git"),
		events:  make(chan string),
		done:    make(chan struct{}),
		watcher: fw,
		paths:   make(map[string]struct{}),
	}

	w.addWatchTree(root)
	w.addWatchDir(w.gitDir)

	go w.run()
	return w, nil
}

// Events yields the path of every relevant change.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Done is closed when the watcher stops.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close stops the watcher goroutine. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

// relevant reports whether an event on path should trigger a refresh.
func (w *Watcher) relevant(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	if rel == ".git" {
		return false
	}
	if dir, name := filepath.Split(rel); filepath.Clean(dir) == ".git" {
		return gitFiles[name]
	}
	return !isGitPath(rel)
}

func isGitPath(rel string) bool {
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first == ".git"
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchNewDir(event.Name)
			}
			select {
			case w.events <- event.Name:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.WithError(err).WithField("root", w.root).Debug("watcher error")
		}
	}
}

func (w *Watcher) maybeWatchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.addWatchTree(path)
}

func (w *Watcher) addWatchDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		logger.WithError(err).WithField("path", path).Debug("watcher add failed")
		return
	}
	w.paths[path] = struct{}{}
}

func (w *Watcher) addWatchTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		w.addWatchDir(path)
		return nil
	})
}
