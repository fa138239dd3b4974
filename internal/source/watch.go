package source

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a file-backed document hierarchy and signals the engine
// when the source mutates. The engine owns debouncing; the watcher only
// forwards raw change events.
type Watcher struct {
	dir    string
	notify func()
}

// NewWatcher watches the directory containing the root document. notify is
// invoked for every relevant filesystem event and must be non-blocking.
func NewWatcher(rootPath string, notify func()) *Watcher {
	return &Watcher{dir: filepath.Dir(rootPath), notify: notify}
}

// Start begins watching until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && w.isDocument(evt.Name) {
					w.notify()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("source watch error: %v", err)
			}
		}
	}()
	return watcher.Add(w.dir)
}

func (w *Watcher) isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}
