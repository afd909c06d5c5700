// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package backlot

import (
	"context"
	"net/url"
)

// MethodArgs is the JSON argument object accepted by registry methods.
type MethodArgs struct {
	Path      string            `json:"path,omitempty"`
	LabelID   string            `json:"labelId,omitempty"`
	AssetID   string            `json:"assetId,omitempty"`
	EmbedCode string            `json:"embedCode,omitempty"`
	Query     map[string]string `json:"query,omitempty"`
	APIKey    string            `json:"apiKey,omitempty"`
	SecretKey string            `json:"secretKey,omitempty"`
}

func (a MethodArgs) options() []CallOption {
	opts := []CallOption{WithCredentials(Credentials{APIKey: a.APIKey, SecretKey: a.SecretKey})}
	if len(a.Query) > 0 {
		q := url.Values{}
		for k, v := range a.Query {
			q.Set(k, v)
		}
		opts = append(opts, WithQuery(q))
	}
	return opts
}

// Method is one entry of the operation registry.
type Method struct {
	Name string
	// Args documents the expected argument shape.
	Args string
	Call func(ctx context.Context, c *Client, args MethodArgs) (any, error)
}

// Methods lists every catalog operation by name.
var Methods = []Method{
	{
		Name: "makeRequest",
		Args: `{"path": "STRING"}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.Raw(ctx, a.Path, a.options()...)
		},
	},
	{
		Name: "getLabels",
		Args: `{}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.Labels(ctx, a.options()...)
		},
	},
	{
		Name: "getLabel",
		Args: `{"labelId": "STRING"}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.Label(ctx, a.LabelID, a.options()...)
		},
	},
	{
		Name: "getChildLabels",
		Args: `{"labelId": "STRING"}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.ChildLabels(ctx, a.LabelID, a.options()...)
		},
	},
	{
		Name: "getAssetsByLabel",
		Args: `{"labelId": "STRING"}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.AssetsByLabel(ctx, a.LabelID, a.options()...)
		},
	},
	{
		Name: "getAsset",
		Args: `{"assetId": "STRING"}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.Asset(ctx, a.AssetID, a.options()...)
		},
	},
	{
		Name: "getAssetMetadata",
		Args: `{"assetId": "STRING"}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.AssetMetadata(ctx, a.AssetID, a.options()...)
		},
	},
	{
		Name: "getAssetStreams",
		Args: `{"assetId": "STRING"}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.AssetStreams(ctx, a.AssetID, a.options()...)
		},
	},
	{
		Name: "getPopularRelated",
		Args: `{"query": {"window": "week"}}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.PopularRelated(ctx, a.options()...)
		},
	},
	{
		Name: "getSimilarRelated",
		Args: `{"embedCode": "STRING"}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.SimilarRelated(ctx, a.EmbedCode, a.options()...)
		},
	},
	{
		Name: "getTrendingRelated",
		Args: `{"query": {"window": "day"}}`,
		Call: func(ctx context.Context, c *Client, a MethodArgs) (any, error) {
			return c.TrendingRelated(ctx, a.options()...)
		},
	},
}

// LookupMethod finds a registry entry by name.
func LookupMethod(name string) (Method, bool) {
	for _, m := range Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}
