// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package provider resolves label, asset and discovery specs into shaped
// collections and videos, fanning out child specs to the catalog.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/channel"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/metrics"
	"github.com/ManuGH/backlot/internal/telemetry"
)

// Catalog is the subset of the catalog client used by the pipeline.
// *backlot.Client satisfies it.
type Catalog interface {
	APIKey() string
	Label(ctx context.Context, labelID string, opts ...backlot.CallOption) (*backlot.Label, error)
	ChildLabels(ctx context.Context, labelID string, opts ...backlot.CallOption) ([]backlot.Label, error)
	AssetsByLabel(ctx context.Context, labelID string, opts ...backlot.CallOption) ([]backlot.Asset, error)
	Asset(ctx context.Context, assetID string, opts ...backlot.CallOption) (*backlot.Asset, error)
	AssetMetadata(ctx context.Context, assetID string, opts ...backlot.CallOption) (map[string]any, error)
	AssetStreams(ctx context.Context, assetID string, opts ...backlot.CallOption) ([]backlot.Stream, error)
	PopularRelated(ctx context.Context, opts ...backlot.CallOption) (*backlot.DiscoveryResult, error)
	SimilarRelated(ctx context.Context, embedCode string, opts ...backlot.CallOption) (*backlot.DiscoveryResult, error)
	TrendingRelated(ctx context.Context, opts ...backlot.CallOption) (*backlot.DiscoveryResult, error)
}

var _ Catalog = (*backlot.Client)(nil)

// SpecSetter registers a child spec and returns its acknowledgement.
type SpecSetter interface {
	SetItemSpec(ctx context.Context, spec Spec) (SpecAck, error)
}

// Broadcaster publishes fire-and-forget events.
type Broadcaster interface {
	Broadcast(ctx context.Context, level Level, ev Event) error
}

// PlayableResolver returns a playable stream URL for an embed code.
type PlayableResolver interface {
	Resolve(ctx context.Context, apiKey, embedCode string) (string, error)
}

// Options configures a Provider. Catalog and Specs are required.
type Options struct {
	Catalog  Catalog
	Channels channel.Lookup
	Specs    SpecSetter
	Events   Broadcaster
	// Playable enables playable URL resolution for assets when non-nil.
	Playable PlayableResolver
	// IsStreamUndefined classifies Playable errors that are not fatal. By
	// default an error whose Code() is STREAM_UNDEFINED matches.
	IsStreamUndefined func(error) bool

	CollectionTransform CollectionTransform
	AssetTransform      AssetTransform
}

// Provider runs the resolution pipeline.
type Provider struct {
	catalog             Catalog
	channels            channel.Lookup
	specs               SpecSetter
	events              Broadcaster
	playable            PlayableResolver
	isStreamUndefined   func(error) bool
	collectionTransform CollectionTransform
	assetTransform      AssetTransform
	logger              zerolog.Logger
}

// New validates opts and returns a Provider.
func New(opts Options) (*Provider, error) {
	if opts.Catalog == nil {
		return nil, errors.New("provider: catalog is required")
	}
	if opts.Specs == nil {
		return nil, errors.New("provider: spec setter is required")
	}
	p := &Provider{
		catalog:             opts.Catalog,
		channels:            opts.Channels,
		specs:               opts.Specs,
		events:              opts.Events,
		playable:            opts.Playable,
		isStreamUndefined:   opts.IsStreamUndefined,
		collectionTransform: opts.CollectionTransform,
		assetTransform:      opts.AssetTransform,
		logger:              xglog.WithComponent("provider"),
	}
	if p.collectionTransform == nil {
		p.collectionTransform = DefaultCollectionTransform
	}
	if p.assetTransform == nil {
		p.assetTransform = DefaultAssetTransform
	}
	if p.isStreamUndefined == nil {
		p.isStreamUndefined = hasStreamUndefinedCode
	}
	return p, nil
}

// hasStreamUndefinedCode matches errors exposing Code() == STREAM_UNDEFINED.
func hasStreamUndefinedCode(err error) bool {
	var coded interface{ Code() string }
	return errors.As(err, &coded) && coded.Code() == CodeStreamUndefined
}

// Sources lists the spec sources Resolve accepts.
func Sources() []string {
	return []string{SourceLabel, SourceAsset, SourcePopular, SourceSimilar, SourceTrending}
}

// Resolve dispatches req to the handler for req.Spec.Source.
func (p *Provider) Resolve(ctx context.Context, req Request) (any, error) {
	ctx, span := telemetry.Tracer("backlot/provider").Start(ctx, "provider.resolve",
		trace.WithAttributes(telemetry.SpecAttributes(req.Spec.ID, req.Spec.Source, req.Spec.Type, req.Spec.Channel)...))
	defer span.End()

	out, err := p.resolve(ctx, req)
	telemetry.RecordError(span, err, Code(err))
	return out, err
}

func (p *Provider) resolve(ctx context.Context, req Request) (any, error) {
	switch req.Spec.Source {
	case SourceLabel:
		return p.ResolveLabel(ctx, req)
	case SourceAsset:
		return p.ResolveAsset(ctx, req)
	case SourcePopular:
		return p.ResolvePopular(ctx, req)
	case SourceSimilar:
		return p.ResolveSimilar(ctx, req)
	case SourceTrending:
		return p.ResolveTrending(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, req.Spec.Source)
	}
}

// channelFor loads the channel named by spec. Without a lookup the channel
// has only its id.
func (p *Provider) channelFor(ctx context.Context, spec Spec) (channel.Channel, error) {
	if p.channels == nil || spec.Channel == "" {
		return channel.Channel{ID: spec.Channel}, nil
	}
	ch, err := p.channels.Lookup(ctx, spec.Channel)
	if err != nil {
		return channel.Channel{}, err
	}
	if ch.ID == "" {
		ch.ID = spec.Channel
	}
	return ch, nil
}

// callOptions applies channel override credentials and extra query
// parameters from the spec.
func callOptions(ch channel.Channel, query map[string]string) []backlot.CallOption {
	var opts []backlot.CallOption
	if creds := ch.Secrets.Credentials(); creds.Complete() {
		opts = append(opts, backlot.WithCredentials(creds))
	}
	if len(query) > 0 {
		q := url.Values{}
		for k, v := range query {
			q.Set(k, v)
		}
		opts = append(opts, backlot.WithQuery(q))
	}
	return opts
}

// notFound broadcasts an error event and returns the matching *Error.
func (p *Provider) notFound(ctx context.Context, spec Spec, code, event, msg string) error {
	err := &Error{Code: code, Message: msg, Spec: spec}
	p.broadcast(ctx, LevelError, Event{
		Spec:    spec,
		Code:    code,
		Message: event,
		Error:   err.Error(),
	})
	return err
}

func (p *Provider) broadcast(ctx context.Context, level Level, ev Event) {
	if p.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.Level = level
	if err := p.events.Broadcast(ctx, level, ev); err != nil {
		lg := xglog.WithContext(ctx, p.logger)
		lg.Warn().
			Err(err).
			Str(xglog.FieldEvent, "provider.broadcast_failed").
			Str(xglog.FieldCode, ev.Code).
			Msg("event broadcast failed")
	}
}

// fanOut registers specs concurrently. Acks keep submission order.
func (p *Provider) fanOut(ctx context.Context, specs []Spec) ([]SpecAck, error) {
	acks := make([]SpecAck, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			ack, err := p.specs.SetItemSpec(gctx, spec)
			if err != nil {
				return fmt.Errorf("set item spec %q: %w", spec.ID, err)
			}
			acks[i] = ack
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(specs) > 0 {
		metrics.AddFanoutSpecs(specs[0].Type, len(specs))
	}
	return acks, nil
}

func relationships(acks []SpecAck) *Relationships {
	data := make([]Ref, len(acks))
	for i, ack := range acks {
		data[i] = ack.Ref()
	}
	return &Relationships{Entities: Entities{Data: data}}
}

// videoSpecs builds one video spec per asset, in order.
func videoSpecs(channelID string, assets []backlot.Asset) []Spec {
	specs := make([]Spec, len(assets))
	for i := range assets {
		asset := assets[i]
		specs[i] = Spec{
			ID:      VideoSpecID(asset),
			Channel: channelID,
			Type:    TypeVideoSpec,
			Source:  SourceAsset,
			Asset:   &asset,
		}
	}
	return specs
}

// observe logs and counts the outcome of one resolution.
func (p *Provider) observe(ctx context.Context, spec Spec, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case Code(err) != "":
		outcome = Code(err)
	case errors.Is(err, ErrInvalidSpec):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	metrics.IncResolve(spec.Source, outcome)

	logger := xglog.WithContext(ctx, p.logger)
	evt := logger.Info()
	if err != nil {
		evt = logger.Warn().Err(err)
	}
	evt.Str(xglog.FieldEvent, "provider.resolve").
		Str(xglog.FieldSource, spec.Source).
		Str(xglog.FieldChannelID, spec.Channel).
		Str(xglog.FieldSpecID, spec.ID).
		Str("outcome", outcome).
		Int64(xglog.FieldDuration, time.Since(start).Milliseconds()).
		Msg("spec resolved")
}
