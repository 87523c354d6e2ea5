package store

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the two record files change on disk
// outside the engine (e.g. the user runs `git pull` manually in a shell).
// It runs until stop is closed; watch errors are logged, not returned,
// since a dropped reload should not bring the server down.
func (s *Store) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, path := range []string{s.tasksPath, s.completePath} {
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			log.Printf("store: watch %s: %v", path, err)
		}
	}

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Name != s.tasksPath && event.Name != s.completePath {
				continue
			}
			s.mu.Lock()
			if err := s.load(); err != nil {
				log.Printf("store: reload after external change to %s: %v", event.Name, err)
			}
			s.mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("store: watch error: %v", err)
		}
	}
}
