// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package backlot

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/backlot/internal/clock"
)

// PathPrefix is the catalog API version prefix.
const PathPrefix = "/v2"

// DefaultBaseURL is the public catalog API endpoint.
const DefaultBaseURL = "http://api.ooyala.com"

// Options configures a Client.
type Options struct {
	BaseURL     string
	Credentials Credentials
	HTTP        Doer
	Clock       clock.Clock
	RetryDelay  time.Duration
	Order       Order
	Rate        rate.Limit
	Burst       int
}

// Client is a typed façade over the catalog API. It holds only immutable
// configuration; all traffic goes through its Queue.
type Client struct {
	baseURL string
	creds   Credentials
	queue   *Queue
}

// New validates the default credentials and builds the client with its queue.
func New(opts Options) (*Client, error) {
	if !opts.Credentials.Complete() {
		return nil, ErrMissingCredentials
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := NewQueue(QueueOptions{
		BaseURL:    base,
		HTTP:       opts.HTTP,
		Clock:      opts.Clock,
		RetryDelay: opts.RetryDelay,
		Order:      opts.Order,
		Rate:       opts.Rate,
		Burst:      opts.Burst,
	})
	return &Client{baseURL: strings.TrimRight(base, "/"), creds: opts.Credentials, queue: q}, nil
}

// BaseURL returns the catalog API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// APIKey returns the default API key. The secret is never exposed.
func (c *Client) APIKey() string { return c.creds.APIKey }

// Queue exposes the client's request queue.
func (c *Client) Queue() *Queue { return c.queue }

// CallOption customizes a single call.
type CallOption func(*callOptions)

type callOptions struct {
	creds Credentials
	query url.Values
}

// WithCredentials overrides the client's default credentials for one call.
// Empty fields keep the default.
func WithCredentials(creds Credentials) CallOption {
	return func(o *callOptions) {
		if creds.APIKey != "" {
			o.creds.APIKey = creds.APIKey
		}
		if creds.SecretKey != "" {
			o.creds.SecretKey = creds.SecretKey
		}
	}
}

// WithQuery merges extra query parameters into one call. Later values
// replace earlier ones for the same key.
func WithQuery(q url.Values) CallOption {
	return func(o *callOptions) {
		for k, vs := range q {
			if o.query == nil {
				o.query = url.Values{}
			}
			o.query[k] = append([]string(nil), vs...)
		}
	}
}

// CallCredentials returns the credentials a call with opts would sign with.
func (c *Client) CallCredentials(opts ...CallOption) Credentials {
	return c.resolve(opts).creds
}

func (c *Client) resolve(opts []CallOption) callOptions {
	o := callOptions{creds: c.creds}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Raw performs a signed GET on an arbitrary API path and returns the body.
func (c *Client) Raw(ctx context.Context, path string, opts ...CallOption) (json.RawMessage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, invalidArgument("Raw", "path")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.get(ctx, path, nil, opts)
}

func (c *Client) get(ctx context.Context, path string, fixed url.Values, opts []CallOption) (json.RawMessage, error) {
	o := c.resolve(opts)
	query := url.Values{}
	for k, vs := range fixed {
		query[k] = vs
	}
	for k, vs := range o.query {
		query[k] = vs
	}
	return c.queue.Do(ctx, Request{Path: path, Query: query, Credentials: o.creds})
}

// getInto decodes the body into out. found is false on 404 or a null body.
func getInto[T any](ctx context.Context, c *Client, path string, fixed url.Values, opts []CallOption) (*T, error) {
	raw, err := c.get(ctx, path, fixed, opts)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, &APIError{Sentinel: ErrBadResponse, Path: path, Err: err}
	}
	return out, nil
}

func getItems[T any](ctx context.Context, c *Client, path string, opts []CallOption) ([]T, error) {
	page, err := getInto[itemsPage[T]](ctx, c, path, nil, opts)
	if err != nil || page == nil {
		return nil, err
	}
	return page.Items, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func labelPath(id string, suffix string) string {
	return PathPrefix + "/labels/" + url.PathEscape(id) + suffix
}

func assetPath(id string, suffix string) string {
	return PathPrefix + "/assets/" + url.PathEscape(id) + suffix
}

// Labels lists all labels.
func (c *Client) Labels(ctx context.Context, opts ...CallOption) ([]Label, error) {
	return getItems[Label](ctx, c, PathPrefix+"/labels", opts)
}

// Label fetches one label; a missing label yields (nil, nil).
func (c *Client) Label(ctx context.Context, labelID string, opts ...CallOption) (*Label, error) {
	if labelID == "" {
		return nil, invalidArgument("Label", "labelId")
	}
	return getInto[Label](ctx, c, labelPath(labelID, ""), nil, opts)
}

// ChildLabels lists the direct children of a label.
func (c *Client) ChildLabels(ctx context.Context, labelID string, opts ...CallOption) ([]Label, error) {
	if labelID == "" {
		return nil, invalidArgument("ChildLabels", "labelId")
	}
	return getItems[Label](ctx, c, labelPath(labelID, "/children"), opts)
}

// AssetsByLabel lists the assets attached to a label.
func (c *Client) AssetsByLabel(ctx context.Context, labelID string, opts ...CallOption) ([]Asset, error) {
	if labelID == "" {
		return nil, invalidArgument("AssetsByLabel", "labelId")
	}
	return getItems[Asset](ctx, c, labelPath(labelID, "/assets"), opts)
}

// Asset fetches one asset; a missing asset yields (nil, nil).
func (c *Client) Asset(ctx context.Context, assetID string, opts ...CallOption) (*Asset, error) {
	if assetID == "" {
		return nil, invalidArgument("Asset", "assetId")
	}
	return getInto[Asset](ctx, c, assetPath(assetID, ""), nil, opts)
}

// AssetMetadata fetches the custom metadata of an asset.
func (c *Client) AssetMetadata(ctx context.Context, assetID string, opts ...CallOption) (map[string]any, error) {
	if assetID == "" {
		return nil, invalidArgument("AssetMetadata", "assetId")
	}
	meta, err := getInto[map[string]any](ctx, c, assetPath(assetID, "/metadata"), nil, opts)
	if err != nil || meta == nil {
		return nil, err
	}
	return *meta, nil
}

// AssetStreams lists the renditions of an asset.
func (c *Client) AssetStreams(ctx context.Context, assetID string, opts ...CallOption) ([]Stream, error) {
	if assetID == "" {
		return nil, invalidArgument("AssetStreams", "assetId")
	}
	streams, err := getInto[[]Stream](ctx, c, assetPath(assetID, "/streams"), nil, opts)
	if err != nil || streams == nil {
		return nil, err
	}
	return *streams, nil
}
