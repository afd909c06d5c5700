// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/backlot/internal/backlot"
	xglog "github.com/ManuGH/backlot/internal/log"
)

// discovery parameterizes the shared discovery orchestration.
type discovery struct {
	source      string
	code        string
	event       string
	defaultName string
	specID      string
	fetch       func(ctx context.Context, opts []backlot.CallOption) (*backlot.DiscoveryResult, error)
}

// ResolvePopular builds the popular-videos collection.
func (p *Provider) ResolvePopular(ctx context.Context, req Request) (*Collection, error) {
	return p.resolveDiscovery(ctx, req, discovery{
		source:      SourcePopular,
		code:        CodePopularNotFound,
		event:       "popular not found",
		defaultName: "Popular Videos",
		specID:      PopularSpecID,
		fetch: func(ctx context.Context, opts []backlot.CallOption) (*backlot.DiscoveryResult, error) {
			return p.catalog.PopularRelated(ctx, opts...)
		},
	})
}

// ResolveTrending builds the trending-videos collection.
func (p *Provider) ResolveTrending(ctx context.Context, req Request) (*Collection, error) {
	return p.resolveDiscovery(ctx, req, discovery{
		source:      SourceTrending,
		code:        CodeTrendingNotFound,
		event:       "trending not found",
		defaultName: "Trending Videos",
		specID:      TrendingSpecID,
		fetch: func(ctx context.Context, opts []backlot.CallOption) (*backlot.DiscoveryResult, error) {
			return p.catalog.TrendingRelated(ctx, opts...)
		},
	})
}

// ResolveSimilar builds the collection of videos similar to spec.asset.
func (p *Provider) ResolveSimilar(ctx context.Context, req Request) (*Collection, error) {
	if req.Spec.Asset == nil || req.Spec.Asset.ID() == "" {
		return nil, invalidSpec(SourceSimilar, "asset.external_id or spec.asset.embed_code")
	}
	assetID := req.Spec.Asset.ID()
	return p.resolveDiscovery(ctx, req, discovery{
		source:      SourceSimilar,
		code:        CodeSimilarNotFound,
		event:       "similar not found",
		defaultName: "Similar Videos",
		specID:      SimilarSpecID(assetID),
		fetch: func(ctx context.Context, opts []backlot.CallOption) (*backlot.DiscoveryResult, error) {
			return p.catalog.SimilarRelated(ctx, assetID, opts...)
		},
	})
}

func (p *Provider) resolveDiscovery(ctx context.Context, req Request, d discovery) (_ *Collection, err error) {
	spec := req.Spec
	ctx = xglog.ContextWithSpecID(ctx, d.specID)
	start := time.Now()
	defer func() { p.observe(ctx, spec, start, err) }()

	ch, err := p.channelFor(ctx, spec)
	if err != nil {
		return nil, err
	}

	result, err := d.fetch(ctx, callOptions(ch, spec.Query))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, p.notFound(ctx, spec, d.code, d.event,
			fmt.Sprintf("%s for channel %q", d.event, spec.Channel))
	}

	name := spec.Name
	if name == "" {
		name = d.defaultName
	}
	base := spec
	base.ID = d.specID
	base.Name = name
	collection := p.collectionTransform(base, backlot.Label{Name: name})

	acks, err := p.fanOut(ctx, videoSpecs(ch.ID, result.Results))
	if err != nil {
		return nil, err
	}
	collection.Relationships = relationships(acks)
	return &collection, nil
}
