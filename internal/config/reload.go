// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/backlot/internal/log"
)

// DefaultReloadDebounce coalesces bursts of writes from editors.
const DefaultReloadDebounce = 500 * time.Millisecond

// ReloadFunc observes a successful reload.
type ReloadFunc func(old, next Config)

// Holder keeps the current configuration and reloads it from its file.
// A reload that fails to load or validate leaves the current value in place.
//
// Only the channel list is applied live by serve. Other settings are
// compared and reported as needing a restart.
type Holder struct {
	loader   *Loader
	path     string
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	current Config

	listenersMu sync.RWMutex
	listeners   []ReloadFunc
}

// NewHolder wraps initial. path is the file loader reads; empty disables Watch.
func NewHolder(initial Config, loader *Loader, path string) *Holder {
	return &Holder{
		loader:   loader,
		path:     path,
		debounce: DefaultReloadDebounce,
		logger:   xglog.WithComponent("config"),
		current:  initial,
	}
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnReload registers fn. Listeners run synchronously after each reload.
func (h *Holder) OnReload(fn ReloadFunc) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload loads and validates the file again and swaps it in.
func (h *Holder) Reload(_ context.Context) error {
	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str(xglog.FieldEvent, "config.reload_failed").Msg("config reload failed, keeping current configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = next
	h.mu.Unlock()

	if RestartRequired(old, next) {
		h.logger.Warn().Str(xglog.FieldEvent, "config.restart_required").
			Msg("settings other than channels changed; restart to apply them")
	}
	h.logger.Info().Str(xglog.FieldEvent, "config.reloaded").
		Int("channels", len(next.Channels)).
		Msg("configuration reloaded")

	h.listenersMu.RLock()
	listeners := append([]ReloadFunc(nil), h.listeners...)
	h.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(old, next)
	}
	return nil
}

// RestartRequired reports whether anything besides the channel list differs.
func RestartRequired(old, next Config) bool {
	return !cmp.Equal(old, next, cmpopts.IgnoreFields(Config{}, "Channels"))
}

// Watch reloads on changes to the config file until ctx ends. It watches
// the parent directory so that editors replacing the file are seen.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		h.logger.Info().Str(xglog.FieldEvent, "config.watcher_disabled").Msg("no config file, watcher disabled")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(h.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.logger.Info().Str(xglog.FieldEvent, "config.watcher_started").Str(xglog.FieldPath, target).Msg("watching config file")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				timer.Reset(h.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			_ = h.Reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().Err(err).Str(xglog.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}
