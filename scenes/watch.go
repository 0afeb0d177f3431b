package scenes

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before its change is
// reported.
const DefaultSettle = 100 * time.Millisecond

// Change is one settled manifest or script file change.
type Change struct {
	Path string
	// Removed is set when the file is gone from Path, either deleted or
	// renamed away. A file replaced by an atomic save reports a plain change.
	Removed bool
}

// Watcher reports manifest and script changes under a set of directories.
// Bursts of events for one file are held until the file settles and then
// reported once, with the final state winning.
type Watcher struct {
	Events chan Change
	Errors chan error

	fs     *fsnotify.Watcher
	settle time.Duration
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	return newWatcher(DefaultSettle, dirs...)
}

func newWatcher(settle time.Duration, dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		Events: make(chan Change, 16),
		Errors: make(chan error, 1),
		fs:     fw,
		settle: settle,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher and closes Events and Errors. Changes still
// settling are dropped.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		err = w.fs.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]bool)
	timer := time.NewTimer(w.settle)
	timer.Stop()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !watched(ev.Name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				pending[ev.Name] = true
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				pending[ev.Name] = false
			default:
				continue
			}
			timer.Reset(w.settle)

		case <-timer.C:
			if !w.flush(pending) {
				return
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}

		case <-w.stop:
			return
		}
	}
}

// flush reports every settled path in name order. It returns false if the
// watcher was closed while sending.
func (w *Watcher) flush(pending map[string]bool) bool {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		select {
		case w.Events <- Change{Path: p, Removed: pending[p]}:
		case <-w.stop:
			return false
		}
		delete(pending, p)
	}
	return true
}

func watched(path string) bool {
	return isManifestFile(path) || isScriptFile(path)
}

func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

func isScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tengo")
}
