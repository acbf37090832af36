package detector

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchDevices nudges the detector whenever a video device node
// appears in or disappears from dir (normally /dev). This shortens the
// reaction time on hotplug without changing the edge-triggered
// emission semantics: the nudged tick still only publishes on an
// actual status change.
//
// The watcher is an accelerator, not a requirement: callers should log
// a returned error and carry on with polling alone.
func (d *Detector) WatchDevices(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	log.Printf("Watching %s for device changes", dir)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				if !strings.HasPrefix(filepath.Base(event.Name), "video") {
					continue
				}
				log.Printf("device event: %s %s", event.Op, event.Name)
				d.Nudge()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("device watch error: %v", err)
			}
		}
	}()

	return nil
}
