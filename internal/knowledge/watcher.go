// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package knowledge

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher hot-reloads the knowledge base when its backing file changes.
// Each successful reload bumps the version tag, which invalidates every
// cached answer produced under earlier versions.
type Watcher struct {
	base    *Base
	watcher *fsnotify.Watcher
	stop    chan struct{}
}

// StartWatcher begins watching the knowledge file's directory. Watching the
// directory rather than the file survives editors and deploy tools that
// replace the file via rename.
func StartWatcher(base *Base) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(base.Path())
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{base: base, watcher: fw, stop: make(chan struct{})}
	go w.run()

	log.Debugf("knowledge watcher started on %s", dir)
	return w, nil
}

func (w *Watcher) run() {
	target := filepath.Clean(w.base.Path())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce: editors often emit a burst of events per save.
			time.Sleep(200 * time.Millisecond)
			w.drainEvents()
			if err := w.base.Reload(); err != nil {
				log.Errorf("knowledge hot reload failed: %v", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("knowledge watcher error: %v", err)
		case <-w.stop:
			return
		}
	}
}

// drainEvents discards events accumulated during the debounce window.
func (w *Watcher) drainEvents() {
	for {
		select {
		case <-w.watcher.Events:
		default:
			return
		}
	}
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	w.watcher.Close()
}
