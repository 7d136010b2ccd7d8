// Package engine provides the ports.Domain implementation backed by an
// Evaluator. Calls run under the configured timeout; an evaluator that
// overruns it yields an Unavailable failure.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/wildgate/adapters/metrics"
	"github.com/artpar/wildgate/domain/failure"
	"github.com/artpar/wildgate/domain/game"
	"github.com/artpar/wildgate/ports"
)

// Name is reported by Info.
const Name = "wildgate"

// Engine serves the domain operations.
type Engine struct {
	eval    Evaluator
	timeout time.Duration
	version string
	metrics *metrics.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds every call. Zero means only the caller's deadline applies.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithVersion sets the version reported by Info.
func WithVersion(v string) Option {
	return func(e *Engine) { e.version = v }
}

// WithMetrics records call durations.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine around eval.
func New(eval Evaluator, opts ...Option) *Engine {
	e := &Engine{eval: eval, version: "dev"}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ensure interface compliance.
var _ ports.Domain = (*Engine)(nil)

// Evaluate returns the probabilities for pos.
func (e *Engine) Evaluate(ctx context.Context, pos game.Position) (game.Probabilities, error) {
	if err := pos.Validate(); err != nil {
		return game.Probabilities{}, err
	}
	return call(ctx, e, "evaluate", func() (game.Probabilities, error) {
		return e.eval.Eval(pos), nil
	})
}

// PipCount returns the pip counts for pos.
func (e *Engine) PipCount(ctx context.Context, pos game.Position) (game.PipCount, error) {
	if err := pos.Validate(); err != nil {
		return game.PipCount{}, err
	}
	return pos.PipCount(), nil
}

// NamedPosition returns a well-known position.
func (e *Engine) NamedPosition(ctx context.Context, name string) (game.Position, error) {
	return game.Named(name)
}

// Info describes the engine.
func (e *Engine) Info(ctx context.Context) (game.EngineInfo, error) {
	if err := ctx.Err(); err != nil {
		return game.EngineInfo{}, failure.Wrap(failure.Unavailable, err, "engine is shutting down")
	}
	return game.EngineInfo{Name: Name, Evaluator: e.eval.Name(), Version: e.version}, nil
}

type result[T any] struct {
	v   T
	err error
}

func call[T any](ctx context.Context, e *Engine, name string, fn func() (T, error)) (T, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: failure.Wrap(failure.Internal, fmt.Errorf("panic: %v", r), name+" failed")}
			}
		}()
		v, err := fn()
		done <- result[T]{v: v, err: err}
	}()

	select {
	case r := <-done:
		if e.metrics != nil {
			e.metrics.ObserveEngine(name, time.Since(start))
		}
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, failure.Wrap(failure.Unavailable, ctx.Err(), name+" did not finish in time")
	}
}
