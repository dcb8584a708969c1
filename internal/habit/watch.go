package habit

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type Logger interface {
	Printf(format string, args ...any)
}

// CatalogWatcher hot-reloads a catalog config file. The parent directory is
// watched rather than the file itself so editors that replace-by-rename
// still trigger a reload.
type CatalogWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(Catalog)
	logger   Logger
	done     chan struct{}
}

func WatchCatalog(path string, onChange func(Catalog), logger Logger) (*CatalogWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	w := &CatalogWatcher{
		path:     filepath.Clean(path),
		watcher:  watcher,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *CatalogWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			catalog, err := LoadCatalog(w.path)
			if err != nil {
				w.logf("catalog reload failed for %s: %v", w.path, err)
				continue
			}
			w.logf("catalog reloaded from %s", w.path)
			if w.onChange != nil {
				w.onChange(catalog)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logf("catalog watch error: %v", err)
		}
	}
}

func (w *CatalogWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *CatalogWatcher) logf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}
