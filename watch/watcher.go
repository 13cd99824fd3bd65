// Package watch reports changes to class files under a directory tree.
package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("classxref.watch")

const DefaultDebounce = 100 * time.Millisecond

// Event reports that the class file at Path was written, created, or
// removed. Removed is decided when the event fires, after the debounce
// interval, by checking whether the file still exists.
type Event struct {
	Path    string
	Removed bool
}

type Watcher struct {
	fw       *fsnotify.Watcher
	root     string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
	stopCh  chan struct{}
}

// New prepares a watcher for the tree at root. Events for one path that
// arrive within debounce of each other are delivered once.
func New(root string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fw:       fw,
		root:     abs,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}, nil
}

// Root returns the absolute path being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Start watches every directory under the root and calls onChange from a
// background goroutine for each settled class-file change. Directories
// created later are picked up as they appear.
func (w *Watcher) Start(onChange func(Event)) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	go w.run(onChange)
	return nil
}

// Stop ends watching and cancels pending events. It is safe to call more
// than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	close(w.stopCh)
	return w.fw.Close()
}

func (w *Watcher) run(onChange func(Event)) {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.Warningf("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !isClass(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule(event.Name, onChange)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Errorf("watch: %v", err)

		case <-w.stopCh:
			return
		}
	}
}

// schedule delivers path once no further event for it has arrived for the
// debounce interval.
func (w *Watcher) schedule(path string, onChange func(Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}
		_, err := os.Stat(path)
		onChange(Event{Path: path, Removed: errors.Is(err, fs.ErrNotExist)})
	})
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		log.Debugf("watching %s", path)
		return w.fw.Add(path)
	})
}

func isClass(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".class")
}
