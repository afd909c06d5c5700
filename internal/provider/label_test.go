// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/channel"
)

func labelRequest(id string) Request {
	return Request{Spec: Spec{
		ID:      "spec-x",
		Channel: "ch1",
		Type:    TypeCollectionSpec,
		Source:  SourceLabel,
		Label:   &backlot.Label{ID: id},
	}}
}

func TestResolveLabel_NotFound(t *testing.T) {
	h := newHarness(t, &fakeCatalog{}, nil, nil)

	_, err := h.provider.ResolveLabel(context.Background(), labelRequest("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CodeLabelNotFound, Code(err))

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "x", perr.Spec.Label.ID)

	events := h.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, LevelError, events[0].Level)
	assert.Equal(t, CodeLabelNotFound, events[0].Event.Code)
	assert.Equal(t, "x", events[0].Event.Spec.Label.ID)
	assert.NotEmpty(t, events[0].Event.ID)

	assert.Empty(t, h.catalog.called("AssetsByLabel"), "must short-circuit")
	assert.Empty(t, h.setter.emitted())
}

func TestResolveLabel_AssetsFanOutInOrder(t *testing.T) {
	cat := &fakeCatalog{
		labels: map[string]*backlot.Label{"foo": {ID: "foo", Name: "Foo"}},
		assets: map[string][]backlot.Asset{"foo": {
			{EmbedCode: "e1", Name: "One"},
			{ExternalID: "x2", EmbedCode: "e2", Name: "Two"},
		}},
		children: map[string][]backlot.Label{"foo": {{ID: "ignored"}}},
	}
	h := newHarness(t, cat, nil, nil)

	coll, err := h.provider.ResolveLabel(context.Background(), labelRequest("foo"))
	require.NoError(t, err)

	assert.Equal(t, "Foo", coll.Title)
	assert.Equal(t, "foo", coll.ID)

	want := []Ref{
		{Type: "video", ID: "res-spec-backlot-e1"},
		{Type: "video", ID: "res-spec-backlot-x2"},
	}
	if diff := cmp.Diff(want, coll.Relationships.Entities.Data); diff != "" {
		t.Errorf("relationships mismatch (-want +got):\n%s", diff)
	}

	emitted := h.setter.emitted()
	require.Len(t, emitted, 2)
	for _, spec := range emitted {
		assert.Equal(t, TypeVideoSpec, spec.Type)
		assert.Equal(t, SourceAsset, spec.Source)
		assert.Equal(t, "ch1", spec.Channel)
		require.NotNil(t, spec.Asset)
	}
}

func TestResolveLabel_ChildLabelsWhenNoAssets(t *testing.T) {
	cat := &fakeCatalog{
		labels: map[string]*backlot.Label{"root": {ID: "root", Name: "Root"}},
		children: map[string][]backlot.Label{"root": {
			{ID: "c1", Name: "C1", ParentID: "root"},
			{ID: "c2", Name: "C2", ParentID: "root"},
			{ID: "c3", Name: "C3", ParentID: "root"},
		}},
	}
	h := newHarness(t, cat, nil, nil)

	coll, err := h.provider.ResolveLabel(context.Background(), labelRequest("root"))
	require.NoError(t, err)

	want := []Ref{
		{Type: "collection", ID: "res-spec-backlot-label-c1"},
		{Type: "collection", ID: "res-spec-backlot-label-c2"},
		{Type: "collection", ID: "res-spec-backlot-label-c3"},
	}
	assert.Equal(t, want, coll.Relationships.Entities.Data)

	for _, spec := range h.setter.emitted() {
		assert.Equal(t, TypeCollectionSpec, spec.Type)
		assert.Equal(t, SourceLabel, spec.Source)
		assert.Equal(t, LabelSpecID(spec.Label.ID), spec.ID)
	}
}

func TestResolveLabel_NoChildren(t *testing.T) {
	cat := &fakeCatalog{labels: map[string]*backlot.Label{"leaf": {ID: "leaf", Name: "Leaf"}}}
	h := newHarness(t, cat, nil, nil)

	coll, err := h.provider.ResolveLabel(context.Background(), labelRequest("leaf"))
	require.NoError(t, err)
	require.NotNil(t, coll.Relationships)
	assert.Empty(t, coll.Relationships.Entities.Data)
	assert.Empty(t, h.setter.emitted())
}

func TestResolveLabel_MergesInboundObject(t *testing.T) {
	cat := &fakeCatalog{labels: map[string]*backlot.Label{"foo": {ID: "foo", Name: "Foo"}}}
	h := newHarness(t, cat, nil, nil)

	req := labelRequest("foo")
	req.Object = &Collection{ID: "stale", Description: "kept", Meta: map[string]any{"k": "v"}}
	coll, err := h.provider.ResolveLabel(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "foo", coll.ID)
	assert.Equal(t, "Foo", coll.Title)
	assert.Equal(t, "kept", coll.Description)
	assert.Equal(t, map[string]any{"k": "v"}, coll.Meta)
}

func TestResolveLabel_UsesChannelCredentials(t *testing.T) {
	cat := &fakeCatalog{labels: map[string]*backlot.Label{"foo": {ID: "foo"}}}
	h := newHarness(t, cat, []channel.Channel{{
		ID:      "ch1",
		Secrets: channel.Secrets{BacklotAPIKey: "ck", BacklotSecretKey: "cs"},
	}}, nil)

	_, err := h.provider.ResolveLabel(context.Background(), labelRequest("foo"))
	require.NoError(t, err)

	for _, method := range []string{"Label", "AssetsByLabel", "ChildLabels"} {
		calls := h.catalog.called(method)
		require.Len(t, calls, 1, method)
		assert.Equal(t, backlot.Credentials{APIKey: "ck", SecretKey: "cs"}, calls[0].Creds, method)
	}
}

func TestResolveLabel_PartialChannelCredentialsIgnored(t *testing.T) {
	cat := &fakeCatalog{labels: map[string]*backlot.Label{"foo": {ID: "foo"}}}
	h := newHarness(t, cat, []channel.Channel{{ID: "ch1", Secrets: channel.Secrets{BacklotAPIKey: "ck"}}}, nil)

	_, err := h.provider.ResolveLabel(context.Background(), labelRequest("foo"))
	require.NoError(t, err)
	assert.Equal(t, "default-key", h.catalog.called("Label")[0].Creds.APIKey)
}

func TestResolveLabel_Validation(t *testing.T) {
	h := newHarness(t, &fakeCatalog{}, nil, nil)

	_, err := h.provider.ResolveLabel(context.Background(), Request{Spec: Spec{Source: SourceLabel, Channel: "ch1"}})
	assert.ErrorIs(t, err, ErrInvalidSpec)
	_, err = h.provider.ResolveLabel(context.Background(), labelRequest(""))
	assert.ErrorIs(t, err, ErrInvalidSpec)
	assert.Empty(t, h.catalog.called("Label"))
}

func TestResolveLabel_ErrorsPropagate(t *testing.T) {
	boom := &backlot.APIError{Sentinel: backlot.ErrUpstream, Path: "/v2/labels/foo", Status: 500}
	h := newHarness(t, &fakeCatalog{err: boom}, nil, nil)

	_, err := h.provider.ResolveLabel(context.Background(), labelRequest("foo"))
	assert.ErrorIs(t, err, backlot.ErrUpstream)
	assert.Empty(t, h.events.all(), "transport errors are not broadcast")

	h = newHarness(t, &fakeCatalog{labels: map[string]*backlot.Label{"foo": {ID: "foo"}},
		assets: map[string][]backlot.Asset{"foo": assetsN("e", 3)}}, nil, nil)
	h.setter.err = errors.New("catalog down")
	_, err = h.provider.ResolveLabel(context.Background(), labelRequest("foo"))
	assert.ErrorContains(t, err, "catalog down")
}

func TestResolveLabel_UnknownChannel(t *testing.T) {
	h := newHarness(t, &fakeCatalog{}, nil, nil)
	req := labelRequest("foo")
	req.Spec.Channel = "nope"

	_, err := h.provider.ResolveLabel(context.Background(), req)
	assert.ErrorIs(t, err, channel.ErrNotFound)
	assert.Empty(t, h.catalog.called("Label"))
}
