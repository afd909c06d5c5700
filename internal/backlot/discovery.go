// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package backlot

import (
	"context"
	"net/url"
)

// VideoFilter restricts discovery results to video assets.
const VideoFilter = "asset_type='video'"

// Discovery defaults; callers override them with WithQuery.
var (
	popularDefaults  = url.Values{"window": {"week"}, "limit": {"50"}}
	trendingDefaults = url.Values{"window": {"day"}, "limit": {"50"}}
	similarDefaults  = url.Values{"limit": {"50"}}
)

func discoveryQuery(defaults url.Values) url.Values {
	q := url.Values{}
	for k, vs := range defaults {
		q[k] = vs
	}
	return q
}

// withVideoFilter appends the fixed filter after the caller's options so
// that it cannot be overridden.
func withVideoFilter(opts []CallOption) []CallOption {
	out := make([]CallOption, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, WithQuery(url.Values{"where": {VideoFilter}}))
}

// PopularRelated lists the most watched videos.
func (c *Client) PopularRelated(ctx context.Context, opts ...CallOption) (*DiscoveryResult, error) {
	return getInto[DiscoveryResult](ctx, c, PathPrefix+"/discover/trending/top", discoveryQuery(popularDefaults), withVideoFilter(opts))
}

// TrendingRelated lists the videos gaining views fastest.
func (c *Client) TrendingRelated(ctx context.Context, opts ...CallOption) (*DiscoveryResult, error) {
	return getInto[DiscoveryResult](ctx, c, PathPrefix+"/discover/trending/momentum", discoveryQuery(trendingDefaults), withVideoFilter(opts))
}

// SimilarRelated lists videos similar to the given embed code.
func (c *Client) SimilarRelated(ctx context.Context, embedCode string, opts ...CallOption) (*DiscoveryResult, error) {
	if embedCode == "" {
		return nil, invalidArgument("SimilarRelated", "embedCode")
	}
	path := PathPrefix + "/discover/similar/assets/" + url.PathEscape(embedCode)
	return getInto[DiscoveryResult](ctx, c, path, discoveryQuery(similarDefaults), withVideoFilter(opts))
}
