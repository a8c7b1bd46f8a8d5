package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/local/pagecomposer/internal/ai"
	"github.com/local/pagecomposer/internal/limiter"
	mpkg "github.com/local/pagecomposer/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	EndpointComposed = "composed"
	EndpointGeneric  = "generic"
)

type Options struct {
	// Timeout bounds one service call. Zero leaves it to the service.
	Timeout time.Duration
	Breaker Breaker
	Limiter *limiter.Inflight
}

// Guard wraps a generation client with a per-call timeout, an optional circuit
// breaker and an in-process inflight cap. It never retries: a failed call is
// reported once and the section goes back to pending.
type Guard struct {
	next ai.Client
	opts Options
}

var _ ai.Client = (*Guard)(nil)

func New(next ai.Client, opts Options) *Guard {
	return &Guard{next: next, opts: opts}
}

func (g *Guard) Name() string { return g.next.Name() }

func (g *Guard) Composed(ctx context.Context, req ai.ComposedRequest) (ai.Response, error) {
	return g.call(ctx, EndpointComposed, req.SectionID, func(cctx context.Context) (ai.Response, error) {
		return g.next.Composed(cctx, req)
	})
}

func (g *Guard) Generic(ctx context.Context, req ai.GenericRequest) (ai.Response, error) {
	return g.call(ctx, EndpointGeneric, req.SectionID, func(cctx context.Context) (ai.Response, error) {
		return g.next.Generic(cctx, req)
	})
}

func (g *Guard) call(ctx context.Context, endpoint, sectionID string, do func(context.Context) (ai.Response, error)) (ai.Response, error) {
	if g.opts.Breaker != nil && g.opts.Breaker.IsOpen(ctx, endpoint) {
		mpkg.BreakerRejected(endpoint)
		log.Debug().Str("section_id", sectionID).Str("endpoint", endpoint).Msg("circuit breaker OPEN - rejecting call")
		return ai.Response{}, &BreakerOpenError{Endpoint: endpoint}
	}

	release, err := g.opts.Limiter.Acquire(ctx)
	if err != nil {
		return ai.Response{}, err
	}
	defer release()

	cctx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := do(cctx)
	dur := time.Since(start)

	if err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = &TimeoutError{Endpoint: endpoint, Timeout: g.opts.Timeout}
	}

	result := Classify(err)
	mpkg.ObserveService(endpoint, result)

	if err != nil {
		log.Warn().
			Str("section_id", sectionID).
			Str("service", g.next.Name()).
			Str("endpoint", endpoint).
			Dur("duration", dur).
			Str("result", result).
			Err(err).
			Msg("generation service call failed")
		if g.opts.Breaker != nil && isTransientError(err) {
			g.opts.Breaker.Open(ctx, endpoint)
			mpkg.BreakerOpened(endpoint)
		}
		return ai.Response{}, err
	}

	log.Debug().
		Str("section_id", sectionID).
		Str("service", g.next.Name()).
		Str("endpoint", endpoint).
		Dur("duration", dur).
		Int("html_len", len(resp.HTML)).
		Msg("generation service call success")
	if g.opts.Breaker != nil {
		g.opts.Breaker.Close(ctx, endpoint)
		mpkg.BreakerClosed(endpoint)
	}
	return resp, nil
}
