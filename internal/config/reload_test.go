// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const reloadBase = `
apiKey: a
secretKey: s
channels:
  - id: ch1
    name: One
`

func newTestHolder(t *testing.T, body string) (*Holder, string) {
	t.Helper()
	path := writeConfig(t, body)
	loader := NewLoader(path).WithLookup(envMap(nil))
	cfg, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(cfg, loader, path)
	h.debounce = 10 * time.Millisecond
	return h, path
}

func TestHolder_ReloadNotifiesListeners(t *testing.T) {
	h, path := newTestHolder(t, reloadBase)

	var gotOld, gotNext Config
	h.OnReload(func(old, next Config) { gotOld, gotNext = old, next })

	require.NoError(t, os.WriteFile(path, []byte(reloadBase+`  - id: ch2
    name: Two
`), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Len(t, gotOld.Channels, 1)
	assert.Len(t, gotNext.Channels, 2)
	assert.Equal(t, "ch2", h.Get().Channels[1].ID)
	assert.False(t, RestartRequired(gotOld, gotNext))
}

func TestHolder_InvalidReloadKeepsCurrent(t *testing.T) {
	h, path := newTestHolder(t, reloadBase)
	called := false
	h.OnReload(func(Config, Config) { called = true })

	require.NoError(t, os.WriteFile(path, []byte("apiKey: a\nsecretKey: s\nunknown: 1\n"), 0o600))
	err := h.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
	assert.False(t, called)
	assert.Equal(t, "ch1", h.Get().Channels[0].ID)
}

func TestRestartRequired(t *testing.T) {
	old := Defaults()
	next := old
	next.Channels = append(next.Channels, next.Channels...)
	assert.False(t, RestartRequired(old, next))

	next.RetryDelay = time.Second
	assert.True(t, RestartRequired(old, next))
}

func TestHolder_WatchReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h, path := newTestHolder(t, reloadBase)

	var mu sync.Mutex
	var channels int
	h.OnReload(func(_, next Config) {
		mu.Lock()
		channels = len(next.Channels)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	updated := []byte(reloadBase + "  - id: ch2\n  - id: ch3\n")
	require.Eventually(t, func() bool {
		// Rewrite until the watcher, which starts asynchronously, sees it.
		_ = os.WriteFile(path, updated, 0o600)
		mu.Lock()
		defer mu.Unlock()
		return channels == 3
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestHolder_WatchWithoutFile(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader(""), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.Watch(ctx))
}
