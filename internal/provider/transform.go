// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package provider

import (
	"github.com/ManuGH/backlot/internal/backlot"
)

// CollectionTransform shapes a label into a collection.
type CollectionTransform func(spec Spec, label backlot.Label) Collection

// AssetTransform shapes an asset into a video.
type AssetTransform func(spec Spec, asset backlot.Asset) Video

// DefaultCollectionTransform titles the collection with the label name.
// The label id wins over the spec id when present.
func DefaultCollectionTransform(spec Spec, label backlot.Label) Collection {
	id := label.ID
	if id == "" {
		id = spec.ID
	}
	return Collection{
		ID:       id,
		Type:     "collection",
		Channel:  spec.Channel,
		Source:   spec.Source,
		Title:    label.Name,
		FullName: label.FullName,
		ParentID: label.ParentID,
	}
}

// DefaultAssetTransform maps asset fields onto a video played by the
// ooyala player.
func DefaultAssetTransform(spec Spec, asset backlot.Asset) Video {
	embed := asset.EmbedCode
	if embed == "" {
		embed = asset.ExternalID
	}
	meta := asset.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	streams := asset.Streams
	if streams == nil {
		streams = []backlot.Stream{}
	}
	return Video{
		ID:           spec.ID,
		Type:         "video",
		Channel:      spec.Channel,
		Source:       spec.Source,
		Title:        asset.Name,
		Description:  asset.Description,
		Duration:     asset.Duration,
		EmbedCode:    asset.EmbedCode,
		ExternalID:   asset.ExternalID,
		IsLiveStream: asset.IsLiveStream,
		CreatedAt:    asset.CreatedAt,
		UpdatedAt:    asset.UpdatedAt,
		Images:       Images{Aspect16x9: asset.PreviewImageURL},
		Player:       Player{Type: "ooyala", EmbedCode: embed},
		Meta:         meta,
		Streams:      streams,
	}
}

// mergeCollection overlays the non-zero fields of c onto base.
func mergeCollection(base *Collection, c Collection) Collection {
	if base == nil {
		return c
	}
	out := *base
	if c.ID != "" {
		out.ID = c.ID
	}
	if c.Type != "" {
		out.Type = c.Type
	}
	if c.Channel != "" {
		out.Channel = c.Channel
	}
	if c.Source != "" {
		out.Source = c.Source
	}
	if c.Title != "" {
		out.Title = c.Title
	}
	if c.Description != "" {
		out.Description = c.Description
	}
	if c.FullName != "" {
		out.FullName = c.FullName
	}
	if c.ParentID != "" {
		out.ParentID = c.ParentID
	}
	if c.Images != nil {
		out.Images = c.Images
	}
	if c.Meta != nil {
		out.Meta = c.Meta
	}
	if c.Relationships != nil {
		out.Relationships = c.Relationships
	}
	return out
}
