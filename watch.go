package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/nf/c8/host"
)

// watchDelay is how long a ROM file must stay unchanged before it is
// reloaded, so that a burst of writes causes a single load.
const watchDelay = 100 * time.Millisecond

// watchROM reloads romFile into r whenever it changes on disk, until ctx
// is done. Each reload counts as a user load. loaded, if not nil, is
// called after every reload.
func watchROM(ctx context.Context, r *host.Runner, romFile string, loaded func(src string)) error {
	romFile = filepath.Clean(romFile)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Watch(filepath.Dir(romFile)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var reload <-chan time.Time
		for {
			select {
			case <-reload:
				reload = nil
				log.Printf("watch: reload %s", filepath.Base(romFile))
				if r.LoadSource(ctx, romFile, true) {
					log.Printf("watch: %s: loaded fallback program", filepath.Base(romFile))
				}
				if loaded != nil {
					loaded(romFile)
				}
			case ev := <-watcher.Event:
				if filepath.Clean(ev.Name) == romFile && !ev.IsAttrib() {
					reload = time.After(watchDelay)
				}
			case err := <-watcher.Error:
				log.Printf("watch: %v", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
