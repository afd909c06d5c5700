// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/catalog"
	"github.com/ManuGH/backlot/internal/channel"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/provider"
)

// Error codes written by the API itself. Domain codes come from provider.Code.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeChannelNotFound = "CHANNEL_NOT_FOUND"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeUnavailable     = "UNAVAILABLE"
)

var errBadRequest = errors.New("api: bad request")

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MethodInfo describes one registry entry.
type MethodInfo struct {
	Name string `json:"name"`
	Args string `json:"args"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps pipeline and client errors onto HTTP.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		return http.StatusNotFound, provider.Code(err)
	case errors.Is(err, channel.ErrNotFound):
		return http.StatusNotFound, CodeChannelNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, provider.ErrInvalidSpec),
		errors.Is(err, provider.ErrUnknownSource),
		errors.Is(err, catalog.ErrInvalidSpec),
		errors.Is(err, backlot.ErrInvalidArgument),
		errors.Is(err, backlot.ErrMissingCredentials):
		return http.StatusBadRequest, CodeInvalidRequest
	default:
		return http.StatusBadGateway, CodeUpstream
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	logger := xglog.WithComponentFromContext(r.Context(), "api")
	evt := logger.Debug()
	if status >= http.StatusInternalServerError {
		evt = logger.Warn()
	}
	evt.Err(err).Int(xglog.FieldStatus, status).Str(xglog.FieldCode, code).Msg("request failed")
	writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req provider.Request
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := xglog.ContextWithSpecID(r.Context(), req.Spec.ID)
	out, err := s.opts.Resolver.Resolve(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, provider.Sources())
}

func (s *Server) handleMethods(w http.ResponseWriter, _ *http.Request) {
	out := make([]MethodInfo, 0, len(backlot.Methods))
	for _, m := range backlot.Methods {
		out = append(out, MethodInfo{Name: m.Name, Args: m.Args})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCallMethod(w http.ResponseWriter, r *http.Request) {
	if s.opts.Client == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Code: CodeUnavailable, Message: "catalog client not configured"})
		return
	}
	name := chi.URLParam(r, "name")
	m, ok := backlot.LookupMethod(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: CodeNotFound, Message: fmt.Sprintf("unknown method %q", name)})
		return
	}
	var args backlot.MethodArgs
	if r.ContentLength != 0 {
		if err := decodeBody(r, &args); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	out, err := m.Call(r.Context(), s.opts.Client, args)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSpecs(w http.ResponseWriter, r *http.Request) {
	if s.opts.Registry == nil {
		writeJSON(w, http.StatusOK, []catalog.Entry{})
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Registry.List(r.URL.Query().Get("channel")))
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.opts.Registry != nil {
		if entry, ok := s.opts.Registry.Get(id); ok {
			writeJSON(w, http.StatusOK, entry)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, ErrorResponse{Code: CodeNotFound, Message: fmt.Sprintf("spec %q not registered", id)})
}
