// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/backlot/internal/api/middleware"
	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/bus"
	"github.com/ManuGH/backlot/internal/catalog"
	"github.com/ManuGH/backlot/internal/channel"
	"github.com/ManuGH/backlot/internal/health"
	"github.com/ManuGH/backlot/internal/provider"
)

type resolverFunc func(ctx context.Context, req provider.Request) (any, error)

func (f resolverFunc) Resolve(ctx context.Context, req provider.Request) (any, error) {
	return f(ctx, req)
}

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	if opts.Resolver == nil {
		opts.Resolver = resolverFunc(func(context.Context, provider.Request) (any, error) {
			return map[string]string{"ok": "yes"}, nil
		})
	}
	s, err := New(opts)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	return postJSONWithToken(t, url, body, "")
}

func postJSONWithToken(t *testing.T, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestNew_RequiresResolver(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestResolve_Success(t *testing.T) {
	var got provider.Request
	ts := newTestServer(t, Options{Resolver: resolverFunc(func(_ context.Context, req provider.Request) (any, error) {
		got = req
		return provider.Collection{ID: "lbl", Type: "collection"}, nil
	})})

	resp := postJSON(t, ts.URL+"/v1/resolve",
		`{"spec":{"id":"s1","channel":"ch","type":"collectionSpec","source":"backlot-label-provider","label":{"id":"lbl","name":"L"}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.HeaderRequestID))

	var out provider.Collection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "lbl", out.ID)
	assert.Equal(t, "ch", got.Spec.Channel)
	require.NotNil(t, got.Spec.Label)
	assert.Equal(t, "lbl", got.Spec.Label.ID)
}

func TestResolve_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "domain not found",
			err:      &provider.Error{Code: provider.CodeLabelNotFound, Message: "no label"},
			wantCode: http.StatusNotFound,
			wantBody: provider.CodeLabelNotFound,
		},
		{
			name:     "unknown channel",
			err:      fmt.Errorf("lookup: %w", channel.ErrNotFound),
			wantCode: http.StatusNotFound,
			wantBody: CodeChannelNotFound,
		},
		{
			name:     "invalid spec",
			err:      fmt.Errorf("label: %w", provider.ErrInvalidSpec),
			wantCode: http.StatusBadRequest,
			wantBody: CodeInvalidRequest,
		},
		{
			name:     "unknown source",
			err:      provider.ErrUnknownSource,
			wantCode: http.StatusBadRequest,
			wantBody: CodeInvalidRequest,
		},
		{
			name:     "client validation",
			err:      fmt.Errorf("asset id: %w", backlot.ErrInvalidArgument),
			wantCode: http.StatusBadRequest,
			wantBody: CodeInvalidRequest,
		},
		{
			name:     "upstream failure",
			err:      &backlot.APIError{Sentinel: backlot.ErrUpstream, Status: 500, Message: "boom", Path: "/v2/labels"},
			wantCode: http.StatusBadGateway,
			wantBody: CodeUpstream,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Options{Resolver: resolverFunc(func(context.Context, provider.Request) (any, error) {
				return nil, tt.err
			})})
			resp := postJSON(t, ts.URL+"/v1/resolve", `{"spec":{"source":"x"}}`)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.wantBody, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestResolve_BadBody(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, body := range []string{"", "{", `{"spec":1}`} {
		resp := postJSON(t, ts.URL+"/v1/resolve", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)
		assert.Equal(t, CodeInvalidRequest, decodeError(t, resp).Code)
	}
}

func TestRecoverer(t *testing.T) {
	ts := newTestServer(t, Options{Resolver: resolverFunc(func(context.Context, provider.Request) (any, error) {
		panic("boom")
	})})
	resp := postJSON(t, ts.URL+"/v1/resolve", `{"spec":{}}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL", decodeError(t, resp).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, Options{Tracing: true})

	resp, err := http.DefaultClient.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.DefaultClient.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "backlot_http_request_duration_seconds")
}

func TestSourcesAndMethods(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, err := http.DefaultClient.Get(ts.URL + "/v1/sources")
	require.NoError(t, err)
	defer resp.Body.Close()
	var sources []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sources))
	assert.Equal(t, provider.Sources(), sources)

	resp2, err := http.DefaultClient.Get(ts.URL + "/v1/methods")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var methods []MethodInfo
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&methods))
	require.Len(t, methods, len(backlot.Methods))
	assert.Equal(t, "makeRequest", methods[0].Name)
}

func TestCallMethod(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v2/labels/l1" {
			_, _ = w.Write([]byte(`{"id":"l1","name":"One"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"missing"}`))
	}))
	defer upstream.Close()

	client, err := backlot.New(backlot.Options{
		BaseURL:     upstream.URL,
		Credentials: backlot.Credentials{APIKey: "k", SecretKey: "s"},
		HTTP:        upstream.Client(),
	})
	require.NoError(t, err)
	ts := newTestServer(t, Options{Client: client, APIToken: "tok"})

	resp := postJSONWithToken(t, ts.URL+"/v1/methods/getLabel", `{"labelId":"l1"}`, "tok")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var label backlot.Label
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&label))
	assert.Equal(t, backlot.Label{ID: "l1", Name: "One"}, label)

	resp = postJSONWithToken(t, ts.URL+"/v1/methods/getLabel", `{}`, "tok")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSONWithToken(t, ts.URL+"/v1/methods/nope", `{}`, "tok")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCallMethod_NoClient(t *testing.T) {
	ts := newTestServer(t, Options{APIToken: "tok"})
	resp := postJSONWithToken(t, ts.URL+"/v1/methods/getLabels", "", "tok")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCallMethod_RequiresToken(t *testing.T) {
	var upstreamCalls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		upstreamCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()
	client, err := backlot.New(backlot.Options{
		BaseURL:     upstream.URL,
		Credentials: backlot.Credentials{APIKey: "k", SecretKey: "s"},
		HTTP:        upstream.Client(),
	})
	require.NoError(t, err)

	body := `{"path":"/v2/assets","query":{}}`

	// No token configured: method calls fail closed.
	open := newTestServer(t, Options{Client: client})
	resp := postJSON(t, open.URL+"/v1/methods/makeRequest", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
	resp = postJSONWithToken(t, open.URL+"/v1/methods/makeRequest", body, "anything")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Resolution stays open when no token is configured.
	resp = postJSON(t, open.URL+"/v1/resolve", `{"spec":{"id":"a","channel":"ch1","type":"video"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	guarded := newTestServer(t, Options{Client: client, APIToken: "tok"})
	resp = postJSON(t, guarded.URL+"/v1/methods/makeRequest", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `Bearer realm="backlot"`, resp.Header.Get("WWW-Authenticate"))
	resp = postJSONWithToken(t, guarded.URL+"/v1/methods/makeRequest", body, "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = postJSON(t, guarded.URL+"/v1/resolve", `{"spec":{"id":"a","channel":"ch1","type":"video"}}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Zero(t, upstreamCalls.Load())

	resp = postJSONWithToken(t, guarded.URL+"/v1/resolve", `{"spec":{"id":"a","channel":"ch1","type":"video"}}`, "tok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSpecs(t *testing.T) {
	reg := catalog.NewRegistry()
	ack, err := reg.SetItemSpec(context.Background(), provider.Spec{ID: "a", Channel: "ch1", Type: provider.TypeVideoSpec})
	require.NoError(t, err)
	_, err = reg.SetItemSpec(context.Background(), provider.Spec{ID: "b", Channel: "ch2", Type: provider.TypeVideoSpec})
	require.NoError(t, err)
	ts := newTestServer(t, Options{Registry: reg})

	resp, err := http.DefaultClient.Get(ts.URL + "/v1/specs?channel=ch1")
	require.NoError(t, err)
	defer resp.Body.Close()
	var entries []catalog.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, ack, entries[0].Ack)

	one, err := http.DefaultClient.Get(ts.URL + "/v1/specs/b")
	require.NoError(t, err)
	defer one.Body.Close()
	assert.Equal(t, http.StatusOK, one.StatusCode)

	missing, err := http.DefaultClient.Get(ts.URL + "/v1/specs/zzz")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	events := bus.NewMemoryBus()
	s, err := New(Options{
		Resolver: resolverFunc(func(context.Context, provider.Request) (any, error) { return nil, nil }),
		Events:   events,
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.DefaultClient.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, events.Publish(ctx, bus.TopicErrorEvents, provider.Event{ID: "e1", Level: provider.LevelError}))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestReadyz_UsesHealthManager(t *testing.T) {
	hm := health.NewManager("test")
	hm.Register(health.ErrorCheck("redis", func(context.Context) error { return errors.New("down") }))
	ts := newTestServer(t, Options{Health: hm})

	resp, err := http.DefaultClient.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	live, err := http.DefaultClient.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer live.Body.Close()
	assert.Equal(t, http.StatusOK, live.StatusCode)
}
