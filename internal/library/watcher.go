package library

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

const defaultDebounce = 250 * time.Millisecond

// WatchOptions tunes Watch.
type WatchOptions struct {
	// Debounce is how long events must stay quiet before a reload.
	Debounce time.Duration
	// MinInterval is the minimum time between two reloads triggered by the
	// watcher. Zero means one second.
	MinInterval time.Duration
}

// Watch reloads the library whenever a file in its directory changes, until
// ctx is cancelled. Events are collected until they settle for
// opts.Debounce; names the loader would not pick up (editor lock and backup
// files) are ignored.
func (l *Library) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = time.Second
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	log := l.log.With().Str("component", "watcher").Logger()
	log.Info().Str("dir", l.dir).Dur("debounce", opts.Debounce).Msg("watching directory")

	limiter := rate.NewLimiter(rate.Every(opts.MinInterval), 1)

	timer := time.NewTimer(opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if l.ignoreEvent(event) {
				continue
			}

			log.Debug().
				Str("path", event.Name).
				Str("op", event.Op.String()).
				Msg("file system event")

			// Restart the quiet period on every event.
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(opts.Debounce)
			pending = true

		case <-timer.C:
			pending = false
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			if _, err := l.Reload(ctx); err != nil {
				log.Warn().Err(err).Msg("reload after change failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (l *Library) ignoreEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	return !l.loader.Match(filepath.Base(event.Name))
}
