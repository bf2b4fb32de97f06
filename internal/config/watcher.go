package config

import (
	"context"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"jitsibot/internal/utils"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file whenever it changes on disk. Editors
// and config management tools replace files via rename, so the watch
// is on the directory, filtered by base name.
func Watch(ctx context.Context, path string, manager *Manager) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if err := w.Add(dir); err != nil {
		return err
	}

	var pending atomic.Bool
	trigger := func() {
		if pending.CompareAndSwap(false, true) {
			go func() {
				time.Sleep(50 * time.Millisecond)
				reload(path, manager)
				pending.Store(false)
			}()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-w.Events:
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				trigger()
			}
		case <-w.Errors:
		}
	}
}

func reload(path string, manager *Manager) {
	next, err := Load(path)
	if err != nil {
		log.Printf("config: reload of %s rejected: %v", path, err)
		return
	}
	ignored := manager.Apply(next)
	for _, key := range ignored {
		log.Printf("config: %s changed on disk but needs a restart, keeping running value", key)
	}
	utils.SetDebug(manager.Current().LogLevel == "debug")
	log.Printf("[*] config reloaded from %s", path)
}
