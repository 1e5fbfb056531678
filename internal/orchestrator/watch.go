package orchestrator

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// KeywordWatcher reloads a keyword table file whenever it changes on disk.
type KeywordWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*KeywordTable)
	onError  func(error)

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// WatchKeywordFile starts watching path. onReload receives every table that
// parses and validates; onError receives everything else. An invalid file
// never replaces a good table. Either callback may be nil.
//
// The parent directory is watched so editors that replace the file on save
// are still picked up.
func WatchKeywordFile(path string, onReload func(*KeywordTable), onError func(error)) (*KeywordWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve keyword file: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	kw := &KeywordWatcher{
		path:     abs,
		watcher:  w,
		onReload: onReload,
		onError:  onError,
		done:     make(chan struct{}),
	}
	kw.wg.Add(1)
	go kw.loop()
	return kw, nil
}

func (kw *KeywordWatcher) loop() {
	defer kw.wg.Done()
	for {
		select {
		case <-kw.done:
			return
		case event, ok := <-kw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != kw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			kw.reload()
		case err, ok := <-kw.watcher.Errors:
			if !ok {
				return
			}
			kw.report(err)
		}
	}
}

func (kw *KeywordWatcher) reload() {
	t, err := LoadKeywordTable(kw.path)
	if err != nil {
		kw.report(err)
		return
	}
	if kw.onReload != nil {
		kw.onReload(t)
	}
}

func (kw *KeywordWatcher) report(err error) {
	if kw.onError != nil {
		kw.onError(err)
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (kw *KeywordWatcher) Close() error {
	var err error
	kw.closeOnce.Do(func() {
		close(kw.done)
		err = kw.watcher.Close()
		kw.wg.Wait()
	})
	return err
}
