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
)

// ResolveLabel turns spec.label into a collection. Assets of the label
// become video children; only a label without assets links its child
// labels as collection children.
func (p *Provider) ResolveLabel(ctx context.Context, req Request) (_ *Collection, err error) {
	spec := req.Spec
	if spec.Label == nil || spec.Label.ID == "" {
		return nil, invalidSpec(SourceLabel, "label.id")
	}
	labelID := spec.Label.ID

	ctx = xglog.ContextWithSpecID(ctx, spec.ID)
	start := time.Now()
	defer func() { p.observe(ctx, spec, start, err) }()

	ch, err := p.channelFor(ctx, spec)
	if err != nil {
		return nil, err
	}
	opts := callOptions(ch, nil)

	label, err := p.catalog.Label(ctx, labelID, opts...)
	if err != nil {
		return nil, err
	}
	if label == nil {
		return nil, p.notFound(ctx, spec, CodeLabelNotFound, "label not found",
			fmt.Sprintf("label not found for id %q", labelID))
	}

	collection := mergeCollection(req.Object, p.collectionTransform(spec, *label))

	var (
		assets   []backlot.Asset
		children []backlot.Label
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		assets, err = p.catalog.AssetsByLabel(gctx, labelID, opts...)
		return err
	})
	g.Go(func() (err error) {
		children, err = p.catalog.ChildLabels(gctx, labelID, opts...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var specs []Spec
	switch {
	case len(assets) > 0:
		specs = videoSpecs(ch.ID, assets)
	case len(children) > 0:
		specs = labelSpecs(ch.ID, children)
	}

	acks, err := p.fanOut(ctx, specs)
	if err != nil {
		return nil, err
	}
	collection.Relationships = relationships(acks)
	return &collection, nil
}

func labelSpecs(channelID string, labels []backlot.Label) []Spec {
	specs := make([]Spec, len(labels))
	for i := range labels {
		label := labels[i]
		specs[i] = Spec{
			ID:      LabelSpecID(label.ID),
			Channel: channelID,
			Type:    TypeCollectionSpec,
			Source:  SourceLabel,
			Label:   &label,
		}
	}
	return specs
}
