// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package backlot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/backlot/internal/clock"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/metrics"
	"github.com/ManuGH/backlot/internal/platform/httpx"
)

const (
	// DefaultRetryDelay is the backoff after a 429 response.
	DefaultRetryDelay = 60 * time.Second
	// DefaultExpiry is added to the dispatch time to form the expires parameter.
	DefaultExpiry = 60 * time.Second

	maxBodyBytes    = 16 << 20
	maxMessageBytes = 256
)

// Order selects which pending request is dispatched next.
type Order int

const (
	// OrderFIFO dispatches the earliest submitted request first.
	OrderFIFO Order = iota
	// OrderLIFO dispatches the most recently submitted request first
	// (the legacy stack discipline).
	OrderLIFO
)

func (o Order) String() string {
	if o == OrderLIFO {
		return "lifo"
	}
	return "fifo"
}

// ParseOrder parses "fifo" or "lifo"; the empty string is FIFO.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fifo":
		return OrderFIFO, nil
	case "lifo":
		return OrderLIFO, nil
	default:
		return OrderFIFO, fmt.Errorf("unknown queue order %q (want fifo or lifo)", s)
	}
}

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is one signed GET against the catalog API.
type Request struct {
	Path        string
	Query       url.Values // extra parameters; api_key, expires and signature are added at dispatch
	Credentials Credentials
}

// QueueOptions configures a Queue.
type QueueOptions struct {
	BaseURL    string
	HTTP       Doer
	Clock      clock.Clock
	RetryDelay time.Duration
	Expiry     time.Duration
	Order      Order
	// Rate paces dispatches when > 0. Zero means unlimited.
	Rate  rate.Limit
	Burst int
}

// Queue serializes catalog requests: at most one request is in flight at any
// time, and a 429 response re-dispatches the same request after RetryDelay.
// While such a retry is pending the in-flight slot stays taken, so every
// other pending request waits for the backoff too. Retries are uncapped as
// long as the caller waits; once the caller's context ends the retry is
// abandoned and the slot is released.
type Queue struct {
	base       string
	http       Doer
	clock      clock.Clock
	retryDelay time.Duration
	expiry     time.Duration
	order      Order
	limiter    *rate.Limiter
	logger     zerolog.Logger

	mu       sync.Mutex
	pending  []*call
	inFlight bool
}

type call struct {
	ctx     context.Context
	req     Request
	attempt int
	done    chan result
}

type result struct {
	body json.RawMessage
	err  error
}

// NewQueue creates a queue. A nil HTTP falls back to a traced httpx client.
func NewQueue(opts QueueOptions) *Queue {
	q := &Queue{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		http:       opts.HTTP,
		clock:      opts.Clock,
		retryDelay: opts.RetryDelay,
		expiry:     opts.Expiry,
		order:      opts.Order,
		logger:     xglog.WithComponent("queue"),
	}
	if q.http == nil {
		q.http = httpx.NewClient("backlot", 0)
	}
	if q.clock == nil {
		q.clock = clock.Real()
	}
	if q.retryDelay <= 0 {
		q.retryDelay = DefaultRetryDelay
	}
	if q.expiry <= 0 {
		q.expiry = DefaultExpiry
	}
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		q.limiter = rate.NewLimiter(opts.Rate, burst)
	}
	return q
}

// Do enqueues req and waits for its outcome. A 404 yields (nil, nil).
// If ctx ends first Do returns ctx.Err(); a request that was not yet
// dispatched is then dropped, one already on the wire runs to completion.
func (q *Queue) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if !req.Credentials.Complete() {
		return nil, ErrMissingCredentials
	}
	if req.Path == "" || req.Path[0] != '/' {
		return nil, invalidArgument("request", "absolute path")
	}

	c := &call{ctx: ctx, req: req, done: make(chan result, 1)}

	q.mu.Lock()
	q.pending = append(q.pending, c)
	n := len(q.pending)
	q.mu.Unlock()
	metrics.SetCatalogQueuePending(n)

	q.pump()

	select {
	case r := <-c.done:
		return r.body, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pending returns the number of requests waiting for the in-flight slot.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// pump starts the next pending request unless one is already in flight.
func (q *Queue) pump() {
	q.mu.Lock()
	if q.inFlight {
		q.mu.Unlock()
		return
	}
	c := q.next()
	if c == nil {
		q.mu.Unlock()
		return
	}
	q.inFlight = true
	n := len(q.pending)
	q.mu.Unlock()

	metrics.SetCatalogQueuePending(n)
	go q.dispatch(c)
}

// next pops the next live call. Callers must hold q.mu.
func (q *Queue) next() *call {
	for len(q.pending) > 0 {
		var c *call
		if q.order == OrderLIFO {
			last := len(q.pending) - 1
			c = q.pending[last]
			q.pending[last] = nil
			q.pending = q.pending[:last]
		} else {
			c = q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
		}
		if c.ctx.Err() != nil {
			continue
		}
		return c
	}
	return nil
}

func (q *Queue) dispatch(c *call) {
	c.attempt++
	if q.limiter != nil {
		_ = q.limiter.Wait(context.WithoutCancel(c.ctx))
	}

	status, body, err := q.roundTrip(c)
	if status == http.StatusTooManyRequests {
		metrics.IncCatalogRateLimited()
		if cerr := c.ctx.Err(); cerr != nil {
			q.abandon(c, cerr)
			return
		}
		q.logger.Warn().
			Str(xglog.FieldEvent, "catalog.rate_limited").
			Str(xglog.FieldPath, c.req.Path).
			Int(xglog.FieldAttempt, c.attempt).
			Dur("retry_in", q.retryDelay).
			Msg("rate limited by catalog API, retrying")
		q.scheduleRetry(c)
		return
	}

	q.finish(c, result{body: body, err: err})
}

// scheduleRetry re-dispatches c after the retry delay, or releases the slot
// as soon as the caller's context ends, whichever happens first.
func (q *Queue) scheduleRetry(c *call) {
	var (
		once  sync.Once
		mu    sync.Mutex
		timer clock.Timer
		stop  func() bool
	)
	mu.Lock()
	defer mu.Unlock()
	timer = q.clock.AfterFunc(q.retryDelay, func() {
		once.Do(func() {
			mu.Lock()
			s := stop
			mu.Unlock()
			if s != nil {
				s()
			}
			q.dispatch(c)
		})
	})
	stop = context.AfterFunc(c.ctx, func() {
		once.Do(func() {
			mu.Lock()
			t := timer
			mu.Unlock()
			t.Stop()
			q.abandon(c, c.ctx.Err())
		})
	})
}

func (q *Queue) abandon(c *call, err error) {
	q.logger.Info().
		Str(xglog.FieldEvent, "catalog.retry_abandoned").
		Str(xglog.FieldPath, c.req.Path).
		Int(xglog.FieldAttempt, c.attempt).
		Msg("caller gone, dropping rate-limited request")
	q.finish(c, result{err: err})
}

// finish reports r to the caller and hands the slot to the next request.
func (q *Queue) finish(c *call, r result) {
	c.done <- r

	q.mu.Lock()
	q.inFlight = false
	q.mu.Unlock()
	q.pump()
}

// roundTrip signs and sends one attempt. A 429 is reported through the
// status with no error so that dispatch can schedule the retry.
func (q *Queue) roundTrip(c *call) (int, json.RawMessage, error) {
	params := make(map[string]string, len(c.req.Query)+2)
	for k, vs := range c.req.Query {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	params["api_key"] = c.req.Credentials.APIKey
	params["expires"] = strconv.FormatInt(q.clock.Now().Add(q.expiry).Unix(), 10)

	values := make(url.Values, len(params)+1)
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("signature", Sign(c.req.Credentials.SecretKey, http.MethodGet, c.req.Path, params))

	target := q.base + c.req.Path + "?" + values.Encode()
	req, err := http.NewRequestWithContext(context.WithoutCancel(c.ctx), http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, &APIError{Sentinel: ErrTransport, Path: c.req.Path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := q.http.Do(req)
	if err != nil {
		metrics.ObserveCatalogRequest(0, time.Since(start))
		return 0, nil, &APIError{Sentinel: ErrTransport, Path: c.req.Path, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	elapsed := time.Since(start)
	metrics.ObserveCatalogRequest(res.StatusCode, elapsed)

	lg := xglog.WithContext(c.ctx, q.logger)
	lg.Debug().
		Str(xglog.FieldEvent, "catalog.response").
		Str(xglog.FieldPath, c.req.Path).
		Int(xglog.FieldStatus, res.StatusCode).
		Int64(xglog.FieldDuration, elapsed.Milliseconds()).
		Msg("catalog request completed")

	if err != nil {
		return res.StatusCode, nil, &APIError{Sentinel: ErrTransport, Path: c.req.Path, Status: res.StatusCode, Err: err}
	}
	return classify(c.req.Path, res, data)
}

func classify(path string, res *http.Response, data []byte) (int, json.RawMessage, error) {
	status := res.StatusCode
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusNotFound:
		return status, nil, nil
	case status < 200 || status > 299:
		return status, nil, &APIError{Sentinel: ErrUpstream, Path: path, Status: status, Message: upstreamMessage(res, data)}
	}

	if !strings.HasPrefix(strings.ToLower(res.Header.Get("Content-Type")), "application/json") {
		return status, nil, &APIError{Sentinel: ErrContentType, Path: path, Status: status, Message: res.Header.Get("Content-Type")}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return status, nil, &APIError{Sentinel: ErrBadResponse, Path: path, Status: status, Message: "empty body"}
	}
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return status, nil, &APIError{Sentinel: ErrBadResponse, Path: path, Status: status, Err: err}
	}
	return status, json.RawMessage(data), nil
}

// upstreamMessage extracts a short human-readable reason from an error body.
func upstreamMessage(res *http.Response, data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" && !strings.HasPrefix(text, "{") {
		if len(text) > maxMessageBytes {
			text = text[:maxMessageBytes]
		}
		return text
	}
	return http.StatusText(res.StatusCode)
}
