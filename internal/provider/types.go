// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package provider

import (
	"strings"

	"github.com/ManuGH/backlot/internal/backlot"
)

// Spec sources served by the provider.
const (
	SourceLabel    = "backlot-label-provider"
	SourceAsset    = "backlot-asset-provider"
	SourcePopular  = "backlot-popular-provider"
	SourceSimilar  = "backlot-similar-provider"
	SourceTrending = "backlot-trending-provider"
)

// Spec types.
const (
	TypeCollectionSpec = "collectionSpec"
	TypeVideoSpec      = "videoSpec"
)

// Deterministic spec ids.
const (
	specIDPrefix      = "spec-backlot-"
	labelSpecIDPrefix = "spec-backlot-label-"

	PopularSpecID       = "spec-backlot-discovery-popular"
	TrendingSpecID      = "spec-backlot-discovery-trending"
	similarSpecIDPrefix = "spec-backlot-discovery-similar-"
)

// Spec describes a content item to resolve.
type Spec struct {
	ID      string `json:"id,omitempty"`
	Channel string `json:"channel"`
	Type    string `json:"type"`
	Source  string `json:"source"`
	Name    string `json:"name,omitempty"`

	Label *backlot.Label `json:"label,omitempty"`
	Asset *backlot.Asset `json:"asset,omitempty"`

	// Query overrides discovery parameters such as window, limit, country or date.
	Query map[string]string `json:"query,omitempty"`

	SkipMetadata    bool `json:"skipMetadata,omitempty"`
	SkipStreams     bool `json:"skipStreams,omitempty"`
	SkipPlayableURL bool `json:"skipPlayableUrl,omitempty"`
}

// SpecAck is the catalog's acknowledgement of a registered spec.
type SpecAck struct {
	Type     string `json:"type"`
	Resource string `json:"resource"`
}

// Ref returns the relationship entry for the acknowledged spec.
func (a SpecAck) Ref() Ref {
	return Ref{Type: strings.TrimSuffix(a.Type, "Spec"), ID: a.Resource}
}

// VideoSpecID is the deterministic spec id of an asset, or "" when the
// asset carries neither an external id nor an embed code.
func VideoSpecID(a backlot.Asset) string {
	if id := a.ID(); id != "" {
		return specIDPrefix + id
	}
	return ""
}

// LabelSpecID is the deterministic spec id of a child label.
func LabelSpecID(labelID string) string {
	return labelSpecIDPrefix + labelID
}

// SimilarSpecID is the spec id of the similar-videos collection of an asset.
func SimilarSpecID(assetID string) string {
	return similarSpecIDPrefix + assetID
}

// Request is the inbound resolution request.
type Request struct {
	Spec Spec `json:"spec"`
	// Object is an existing collection that label resolution merges into.
	Object *Collection `json:"object,omitempty"`
}

// Ref is one relationship edge.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationships holds the child edges of a collection.
type Relationships struct {
	Entities Entities `json:"entities"`
}

// Entities lists related items in fan-out order.
type Entities struct {
	Data []Ref `json:"data"`
}

// Images holds artwork URLs.
type Images struct {
	Aspect16x9 string `json:"aspect16x9,omitempty"`
}

// Player tells clients how to play a video.
type Player struct {
	Type      string `json:"type"`
	EmbedCode string `json:"embedCode,omitempty"`
}

// Collection is the shaped output of label and discovery resolution.
type Collection struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Channel       string         `json:"channel,omitempty"`
	Source        string         `json:"source,omitempty"`
	Title         string         `json:"title,omitempty"`
	Description   string         `json:"description,omitempty"`
	FullName      string         `json:"fullName,omitempty"`
	ParentID      string         `json:"parentId,omitempty"`
	Images        *Images        `json:"images,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
	Relationships *Relationships `json:"relationships,omitempty"`
}

// Video is the shaped output of asset resolution.
type Video struct {
	ID           string           `json:"id"`
	Type         string           `json:"type"`
	Channel      string           `json:"channel,omitempty"`
	Source       string           `json:"source,omitempty"`
	Title        string           `json:"title,omitempty"`
	Description  string           `json:"description,omitempty"`
	Duration     int64            `json:"duration,omitempty"`
	EmbedCode    string           `json:"embedCode,omitempty"`
	ExternalID   string           `json:"externalId,omitempty"`
	IsLiveStream bool             `json:"isLiveStream,omitempty"`
	CreatedAt    string           `json:"createdAt,omitempty"`
	UpdatedAt    string           `json:"updatedAt,omitempty"`
	Images       Images           `json:"images"`
	Player       Player           `json:"player"`
	Meta         map[string]any   `json:"meta"`
	Streams      []backlot.Stream `json:"streams"`
}

// Level is the severity of a broadcast event.
type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

// Event reports a not-found condition or an informational fallback.
type Event struct {
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Spec    Spec   `json:"spec"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
