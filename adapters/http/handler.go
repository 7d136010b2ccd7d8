// Package http serves the API, its documentation and the process endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/artpar/wildgate/adapters/idgen"
	"github.com/artpar/wildgate/adapters/metrics"
	"github.com/artpar/wildgate/core/api"
	"github.com/artpar/wildgate/core/codec"
	"github.com/artpar/wildgate/core/errmap"
	"github.com/artpar/wildgate/core/route"
	"github.com/artpar/wildgate/core/validation"
	"github.com/artpar/wildgate/pkg/apierror"
	"github.com/artpar/wildgate/ports"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// APIHandler is the dispatch boundary: everything that reaches a client
// from an API route passes through ServeHTTP, including panics.
type APIHandler struct {
	service *api.Service
	logger  zerolog.Logger
	metrics *metrics.Collector
	ids     ports.IDGenerator
	timeout time.Duration
	maxBody int64
}

// HandlerOption configures an APIHandler.
type HandlerOption func(*APIHandler)

// WithMetrics records validation rejections and failures.
func WithMetrics(m *metrics.Collector) HandlerOption {
	return func(h *APIHandler) { h.metrics = m }
}

// WithIDGenerator sets the source of error references.
func WithIDGenerator(ids ports.IDGenerator) HandlerOption {
	return func(h *APIHandler) { h.ids = ids }
}

// WithRequestTimeout bounds each operation. Zero disables the bound.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *APIHandler) { h.timeout = d }
}

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *APIHandler) { h.maxBody = n }
}

// NewAPIHandler creates the handler for a built service.
func NewAPIHandler(svc *api.Service, logger zerolog.Logger, opts ...HandlerOption) *APIHandler {
	h := &APIHandler{
		service: svc,
		logger:  logger,
		ids:     idgen.UUID{},
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP dispatches one API request.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Dispatch(r.Method, r.URL.EscapedPath())
	if err != nil {
		h.fail(w, r, "", err)
		return
	}
	op := m.Entry.Operation.ID
	setOperation(r.Context(), op)

	body, err := readBody(r, h.maxBody)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	out, err := invoke(ctx, m.Entry.Invoke, route.Input{Body: body, Path: m.Params, Query: r.URL.Query()})
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	if len(out.Body) == 0 {
		w.WriteHeader(out.Status)
		return
	}
	w.Header().Set("Content-Type", apierror.ContentType)
	w.WriteHeader(out.Status)
	if _, err := w.Write(out.Body); err != nil {
		h.logger.Error().Err(err).Str("operation", op).Msg("failed to write response body")
	}
}

// fail writes the mapped error. Redacted errors are logged with a reference
// the client can quote.
func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := errmap.Map(err)

	switch {
	case errmap.Redacted(status):
		body.Reference = h.ids.New()
		h.logger.Error().
			Err(err).
			Str("operation", op).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("reference", body.Reference).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
	case status >= http.StatusInternalServerError:
		h.logger.Warn().
			Err(err).
			Str("operation", op).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request not served")
	}

	if h.metrics != nil && op != "" {
		var rejected *validation.RejectedError
		if errors.As(err, &rejected) {
			h.metrics.ValidationRejections.WithLabelValues(op).Inc()
		}
		h.metrics.DomainFailures.WithLabelValues(string(body.Kind)).Inc()
	}

	var mna *route.MethodNotAllowedError
	if errors.As(err, &mna) {
		w.Header().Set("Allow", strings.Join(mna.Allowed, ", "))
	}
	apierror.Write(w, body)
}

// invoke runs the operation and turns a panic into an error for this request only.
func invoke(ctx context.Context, fn route.Invoker, in route.Input) (out route.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()
	return fn(ctx, in)
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, &codec.DecodeError{Offset: -1, Msg: "failed to read request body", Err: err}
	}
	if int64(len(body)) > limit {
		return nil, &codec.DecodeError{Offset: limit, Msg: fmt.Sprintf("request body exceeds %d bytes", limit)}
	}
	return body, nil
}
