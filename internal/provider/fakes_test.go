// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/channel"
)

type catalogCall struct {
	Method string
	ID     string
	Creds  backlot.Credentials
}

// fakeCatalog serves canned entities and records calls with their
// effective credentials.
type fakeCatalog struct {
	mu    sync.Mutex
	calls []catalogCall

	labels   map[string]*backlot.Label
	children map[string][]backlot.Label
	assets   map[string][]backlot.Asset
	byID     map[string]*backlot.Asset
	meta     map[string]map[string]any
	streams  map[string][]backlot.Stream
	popular  *backlot.DiscoveryResult
	trending *backlot.DiscoveryResult
	similar  map[string]*backlot.DiscoveryResult
	err      error
}

var defaultClient = func() *backlot.Client {
	c, err := backlot.New(backlot.Options{Credentials: backlot.Credentials{APIKey: "default-key", SecretKey: "default-secret"}})
	if err != nil {
		panic(err)
	}
	return c
}()

func (f *fakeCatalog) record(method, id string, opts []backlot.CallOption) {
	creds := defaultClient.CallCredentials(opts...)
	f.mu.Lock()
	f.calls = append(f.calls, catalogCall{Method: method, ID: id, Creds: creds})
	f.mu.Unlock()
}

func (f *fakeCatalog) called(method string) []catalogCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []catalogCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeCatalog) APIKey() string { return "default-key" }

func (f *fakeCatalog) Label(_ context.Context, id string, opts ...backlot.CallOption) (*backlot.Label, error) {
	f.record("Label", id, opts)
	return f.labels[id], f.err
}

func (f *fakeCatalog) ChildLabels(_ context.Context, id string, opts ...backlot.CallOption) ([]backlot.Label, error) {
	f.record("ChildLabels", id, opts)
	return f.children[id], nil
}

func (f *fakeCatalog) AssetsByLabel(_ context.Context, id string, opts ...backlot.CallOption) ([]backlot.Asset, error) {
	f.record("AssetsByLabel", id, opts)
	return f.assets[id], nil
}

func (f *fakeCatalog) Asset(_ context.Context, id string, opts ...backlot.CallOption) (*backlot.Asset, error) {
	f.record("Asset", id, opts)
	a, ok := f.byID[id]
	if !ok {
		return nil, f.err
	}
	cp := *a
	return &cp, f.err
}

func (f *fakeCatalog) AssetMetadata(_ context.Context, id string, opts ...backlot.CallOption) (map[string]any, error) {
	f.record("AssetMetadata", id, opts)
	return f.meta[id], nil
}

func (f *fakeCatalog) AssetStreams(_ context.Context, id string, opts ...backlot.CallOption) ([]backlot.Stream, error) {
	f.record("AssetStreams", id, opts)
	return f.streams[id], nil
}

func (f *fakeCatalog) PopularRelated(_ context.Context, opts ...backlot.CallOption) (*backlot.DiscoveryResult, error) {
	f.record("PopularRelated", "", opts)
	return f.popular, f.err
}

func (f *fakeCatalog) SimilarRelated(_ context.Context, embedCode string, opts ...backlot.CallOption) (*backlot.DiscoveryResult, error) {
	f.record("SimilarRelated", embedCode, opts)
	return f.similar[embedCode], f.err
}

func (f *fakeCatalog) TrendingRelated(_ context.Context, opts ...backlot.CallOption) (*backlot.DiscoveryResult, error) {
	f.record("TrendingRelated", "", opts)
	return f.trending, f.err
}

// recordingSetter acknowledges specs after a random delay so that
// completion order differs from submission order.
type recordingSetter struct {
	mu    sync.Mutex
	specs []Spec
	err   error
}

func (s *recordingSetter) SetItemSpec(_ context.Context, spec Spec) (SpecAck, error) {
	time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	s.mu.Lock()
	s.specs = append(s.specs, spec)
	s.mu.Unlock()
	if s.err != nil {
		return SpecAck{}, s.err
	}
	return SpecAck{Type: spec.Type, Resource: "res-" + spec.ID}, nil
}

func (s *recordingSetter) emitted() []Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Spec(nil), s.specs...)
}

type recordedEvent struct {
	Level Level
	Event Event
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, level Level, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Level: level, Event: ev})
	return nil
}

func (b *recordingBroadcaster) all() []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedEvent(nil), b.events...)
}

type stubPlayable struct {
	mu    sync.Mutex
	url   string
	err   error
	calls []string
}

func (s *stubPlayable) Resolve(_ context.Context, apiKey, embedCode string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, apiKey+"/"+embedCode)
	s.mu.Unlock()
	return s.url, s.err
}

type streamUndefined struct{}

func (streamUndefined) Error() string { return "stream undefined" }
func (streamUndefined) Code() string  { return CodeStreamUndefined }

type harness struct {
	catalog  *fakeCatalog
	setter   *recordingSetter
	events   *recordingBroadcaster
	provider *Provider
}

func newHarness(t *testing.T, cat *fakeCatalog, channels []channel.Channel, playable PlayableResolver) *harness {
	t.Helper()
	h := &harness{catalog: cat, setter: &recordingSetter{}, events: &recordingBroadcaster{}}
	p, err := New(Options{
		Catalog:  cat,
		Channels: channel.NewStaticStore(append([]channel.Channel{{ID: "ch1"}}, channels...)),
		Specs:    h.setter,
		Events:   h.events,
		Playable: playable,
	})
	require.NoError(t, err)
	h.provider = p
	return h
}

func assetsN(prefix string, n int) []backlot.Asset {
	out := make([]backlot.Asset, n)
	for i := range out {
		out[i] = backlot.Asset{EmbedCode: fmt.Sprintf("%s%d", prefix, i), Name: fmt.Sprintf("Video %d", i)}
	}
	return out
}
