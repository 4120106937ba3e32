package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path whenever it changes on disk, publishing
// each successfully validated Config on the returned channel. Intended for
// long-running servers (cmd/unitoracle); one-shot driver runs should just
// call Load once. The returned stop func closes the underlying watcher;
// callers must call it to release the inotify/kqueue handle.
func Watch(path string) (<-chan *Config, func() error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	out := make(chan *Config, 1)
	go func() {
		defer close(out)
		for event := range w.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil || len(bytes.TrimSpace(data)) == 0 {
				// a transient write (editor truncating before rewriting)
				// is common; skip and wait for the next event rather than
				// publishing the defaults an empty file loads as.
				continue
			}
			c, err := Load(path)
			if err != nil {
				// an invalid rewrite is skipped the same way, without
				// tearing down the watch.
				continue
			}
			out <- c
		}
	}()
	return out, w.Close, nil
}
