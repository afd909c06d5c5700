// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package backlot

// Credentials authenticate catalog API calls.
type Credentials struct {
	APIKey    string `json:"apiKey,omitempty" yaml:"apiKey"`
	SecretKey string `json:"secretKey,omitempty" yaml:"secretKey"`
}

// Complete reports whether both keys are set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.SecretKey != ""
}

// Label is a node of the provider's category tree.
type Label struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// Asset is a remote video.
type Asset struct {
	EmbedCode       string         `json:"embed_code,omitempty"`
	ExternalID      string         `json:"external_id,omitempty"`
	Name            string         `json:"name,omitempty"`
	Description     string         `json:"description,omitempty"`
	PreviewImageURL string         `json:"preview_image_url,omitempty"`
	AssetType       string         `json:"asset_type,omitempty"`
	Status          string         `json:"status,omitempty"`
	Duration        int64          `json:"duration,omitempty"`
	CreatedAt       string         `json:"created_at,omitempty"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
	IsLiveStream    bool           `json:"is_live_stream,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
	Streams         []Stream       `json:"streams,omitempty"`
}

// ID is the identifier the catalog API accepts for asset lookups: the
// external id when set, otherwise the embed code.
func (a Asset) ID() string {
	if a.ExternalID != "" {
		return a.ExternalID
	}
	return a.EmbedCode
}

// Stream is one rendition of an asset.
type Stream struct {
	Label               string `json:"label,omitempty"`
	Profile             string `json:"profile,omitempty"`
	URL                 string `json:"url"`
	StreamType          string `json:"stream_type,omitempty"`
	MuxingFormat        string `json:"muxing_format,omitempty"`
	VideoCodec          string `json:"video_codec,omitempty"`
	AudioCodec          string `json:"audio_codec,omitempty"`
	VideoWidth          int    `json:"video_width,omitempty"`
	VideoHeight         int    `json:"video_height,omitempty"`
	AverageVideoBitrate int    `json:"average_video_bitrate,omitempty"`
	AudioBitrate        int    `json:"audio_bitrate,omitempty"`
	FileSize            int64  `json:"file_size,omitempty"`
	IsSource            bool   `json:"is_source,omitempty"`
}

// DiscoveryResult is the body of the discover endpoints.
type DiscoveryResult struct {
	Results []Asset `json:"results"`
}

type itemsPage[T any] struct {
	Items []T `json:"items"`
}
