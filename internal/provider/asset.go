// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/backlot/internal/backlot"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/metrics"
)

// PlayableStreamLabel labels the stream appended from the player API.
const PlayableStreamLabel = "hls-playable"

// ResolveAsset turns spec.asset into a video. Skip flags come from the
// channel secrets or the spec.
func (p *Provider) ResolveAsset(ctx context.Context, req Request) (_ *Video, err error) {
	spec := req.Spec
	if spec.Asset == nil || spec.Asset.ID() == "" {
		return nil, invalidSpec(SourceAsset, "asset.external_id or spec.asset.embed_code")
	}
	assetID := spec.Asset.ID()

	ctx = xglog.ContextWithSpecID(ctx, spec.ID)
	start := time.Now()
	defer func() { p.observe(ctx, spec, start, err) }()

	ch, err := p.channelFor(ctx, spec)
	if err != nil {
		return nil, err
	}
	opts := callOptions(ch, nil)
	secrets := ch.Secrets
	skipMetadata := secrets.SkipMetadata || spec.SkipMetadata
	skipStreams := secrets.SkipStreams || spec.SkipStreams
	skipPlayable := secrets.SkipPlayableURL || spec.SkipPlayableURL

	var (
		asset   *backlot.Asset
		meta    = map[string]any{}
		streams = []backlot.Stream{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		asset, err = p.catalog.Asset(gctx, assetID, opts...)
		return err
	})
	if !skipMetadata {
		g.Go(func() error {
			m, err := p.catalog.AssetMetadata(gctx, assetID, opts...)
			if m != nil {
				meta = m
			}
			return err
		})
	}
	if !skipStreams {
		g.Go(func() error {
			s, err := p.catalog.AssetStreams(gctx, assetID, opts...)
			if s != nil {
				streams = s
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, p.notFound(ctx, spec, CodeAssetNotFound, "asset not found",
			fmt.Sprintf("video not found for id %q", assetID))
	}
	asset.Meta = meta
	asset.Streams = streams

	if p.playable != nil && !skipPlayable {
		if err := p.appendPlayable(ctx, spec, ch.Secrets.Credentials(), asset, assetID); err != nil {
			return nil, err
		}
	}

	video := p.assetTransform(spec, *asset)
	return &video, nil
}

// appendPlayable pushes the playable URL onto asset.Streams. An undefined
// stream is reported as an info event and is not an error.
func (p *Provider) appendPlayable(ctx context.Context, spec Spec, creds backlot.Credentials, asset *backlot.Asset, assetID string) error {
	apiKey := creds.APIKey
	if apiKey == "" {
		apiKey = p.catalog.APIKey()
	}
	embedCode := asset.EmbedCode
	if embedCode == "" {
		embedCode = assetID
	}

	playableURL, err := p.playable.Resolve(ctx, apiKey, embedCode)
	if err != nil {
		if !p.isStreamUndefined(err) {
			return fmt.Errorf("resolve playable url for %q: %w", embedCode, err)
		}
		metrics.IncPlayableFallback()
		p.broadcast(ctx, LevelInfo, Event{
			Spec:    spec,
			Code:    CodeStreamUndefined,
			Message: "playable url undefined",
			Error:   err.Error(),
		})
		return nil
	}
	asset.Streams = append(asset.Streams, backlot.Stream{Label: PlayableStreamLabel, URL: playableURL})
	return nil
}
