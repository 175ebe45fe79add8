package catalogfile

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// ReloadCallback is called after a watcher-driven reload with the number
// of modules now served.
type ReloadCallback func(modules int)

// Watch reloads src whenever its file changes until ctx is cancelled.
//
// The parent directory is watched rather than the file, because editors
// and deploy tools usually replace the file through a rename. Bursts of
// events are folded into one reload.
func Watch(ctx context.Context, src *Source, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(src.Path())
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	logger.Info("catalog watcher: started", slog.String("path", target))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-timerCh:
			n, err := src.Reload()
			if err != nil {
				logger.Warn("catalog watcher: reload failed, keeping previous catalog",
					slog.String("path", target),
					slog.String("error", err.Error()))
				continue
			}
			logger.Info("catalog watcher: reloaded", slog.Int("modules", n))
			if cb != nil {
				cb(n)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
