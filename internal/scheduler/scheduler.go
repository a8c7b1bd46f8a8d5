// Package scheduler drives sections through generation.
//
// The scheduler is the single owner of a session's section list. Sections are
// replaced whole under one mutex; the mutex is never held across a strategy
// call, so any number of generations can be in flight at once. Each attempt
// snapshots the prior approved markup when it starts and a result is applied
// only if its attempt is still the current one.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/local/pagecomposer/internal/logger"
	mpkg "github.com/local/pagecomposer/internal/metrics"
	"github.com/local/pagecomposer/internal/section"
	"github.com/local/pagecomposer/internal/strategy"
)

// Selector picks the strategy of one attempt.
type Selector interface {
	Select(ctx context.Context, sec section.Section, snap strategy.Snapshot) (strategy.Strategy, error)
}

type Dependencies struct {
	Selector Selector
	Handler  strategy.Handler
}

type Options struct {
	// SessionID tags log lines.
	SessionID string
	// Concurrency caps bulk and automatic generation. Zero means unbounded.
	Concurrency int
}

// pageMeta is the page-level part of a plan.
type pageMeta struct {
	name, title, context string
}

type Scheduler struct {
	deps Dependencies
	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	meta     pageMeta
	sections []section.Section
	index    map[string]int
	inflight map[string]struct{}
	auto     map[string]struct{}
	attempts map[string]uint64
}

func New(deps Dependencies, opts Options) *Scheduler {
	return &Scheduler{
		deps:     deps,
		opts:     opts,
		log:      logger.Session(opts.SessionID),
		index:    map[string]int{},
		inflight: map[string]struct{}{},
		auto:     map[string]struct{}{},
		attempts: map[string]uint64{},
	}
}

// Load installs a plan and generates every section that resolves to a crop
// render of a usable master image. Those need no user action since they cost
// nothing and are deterministic. A crop whose image cannot be referenced would
// downgrade to a service call, so it waits for an explicit request. Auto
// generation failures leave the section pending and are only logged.
func (s *Scheduler) Load(ctx context.Context, plan section.Plan) error {
	plan.Normalize()
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	s.mu.Lock()
	if len(s.inflight) > 0 {
		s.mu.Unlock()
		return fmt.Errorf("cannot load a plan while %d sections are generating", len(s.inflight))
	}
	s.meta = pageMeta{name: plan.PageName, title: plan.PageTitle, context: plan.PageContext}
	s.sections = make([]section.Section, len(plan.Sections))
	s.index = make(map[string]int, len(plan.Sections))
	s.auto = map[string]struct{}{}
	s.attempts = map[string]uint64{}
	for i, sec := range plan.Sections {
		s.sections[i] = sec.Clone()
		s.index[sec.ID] = i
	}
	pending := s.filter(section.PhasePending)
	s.mu.Unlock()

	var autoIDs []string
	for _, sec := range pending {
		st, err := s.deps.Selector.Select(ctx, sec, strategy.Snapshot{})
		if err != nil {
			continue
		}
		if c, ok := st.(strategy.Crop); ok && c.Local() {
			autoIDs = append(autoIDs, sec.ID)
		}
	}
	s.mu.Lock()
	for _, id := range autoIDs {
		s.auto[id] = struct{}{}
	}
	s.mu.Unlock()

	s.log.Info().Int("sections", len(plan.Sections)).Int("auto", len(autoIDs)).Msg("plan loaded")

	if err := s.run(ctx, autoIDs); err != nil {
		s.log.Warn().Err(err).Msg("automatic crop generation incomplete")
	}
	return nil
}

// GenerateAll generates every pending section that is not an automatic crop
// section. Each runs independently; the returned error combines the failures.
func (s *Scheduler) GenerateAll(ctx context.Context) error {
	s.mu.Lock()
	var ids []string
	for _, sec := range s.sections {
		if sec.Phase() != section.PhasePending {
			continue
		}
		if _, auto := s.auto[sec.ID]; auto {
			continue
		}
		ids = append(ids, sec.ID)
	}
	s.mu.Unlock()

	s.log.Info().Int("sections", len(ids)).Msg("generating all pending sections")
	return s.run(ctx, ids)
}

func (s *Scheduler) run(ctx context.Context, ids []string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}
	for _, id := range ids {
		g.Go(func() error {
			if _, err := s.Generate(ctx, id); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			// failures never cancel siblings
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// Generate runs one attempt for a section and blocks until it settles. It is
// valid from pending, done and generating; in the last case the older attempt
// is superseded and its result will be discarded.
func (s *Scheduler) Generate(ctx context.Context, id string) (section.Section, error) {
	sec, attempt, snap, err := s.begin(id)
	if err != nil {
		return section.Section{}, err
	}
	start := time.Now()

	var (
		st  strategy.Strategy
		out strategy.Output
	)
	st, err = s.deps.Selector.Select(ctx, sec, snap)
	if err == nil {
		out, err = st.Dispatch(ctx, s.deps.Handler)
	}
	kind := "unresolved"
	if st != nil {
		kind = string(st.Kind())
	}
	if out.Downgraded {
		kind = string(strategy.KindFallback)
	}
	return s.finish(id, attempt, kind, out, err, time.Since(start))
}

func (s *Scheduler) begin(id string) (section.Section, uint64, strategy.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return section.Section{}, 0, strategy.Snapshot{}, fmt.Errorf("%w: %s", section.ErrNotFound, id)
	}
	cur := s.sections[i]
	if cur.Phase() == section.PhaseSkipped {
		return section.Section{}, 0, strategy.Snapshot{}, fmt.Errorf("%w: %s", section.ErrSkipped, id)
	}

	snap := s.snapshot(cur.Order)
	s.attempts[id]++
	attempt := s.attempts[id]

	next := cur.Clone()
	next.Status = section.Generating(attempt)
	s.sections[i] = next
	s.inflight[id] = struct{}{}
	mpkg.SetInflight(len(s.inflight))

	s.log.Debug().
		Str("section_id", id).
		Int("order", cur.Order).
		Uint64("attempt", attempt).
		Int("context_len", len(snap.PreviousSectionsHTML)).
		Msg("generation started")
	return next.Clone(), attempt, snap, nil
}

func (s *Scheduler) finish(id string, attempt uint64, kind string, out strategy.Output, genErr error, dur time.Duration) (section.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return section.Section{}, fmt.Errorf("%w: %s", section.ErrNotFound, id)
	}
	cur := s.sections[i]
	if a, gen := section.Attempt(cur.Status); !gen || a != attempt {
		s.log.Debug().
			Str("section_id", id).
			Uint64("attempt", attempt).
			Str("phase", string(cur.Phase())).
			Msg("discarding superseded result")
		return cur.Clone(), fmt.Errorf("%w: %s attempt %d", section.ErrSuperseded, id, attempt)
	}

	delete(s.inflight, id)
	mpkg.SetInflight(len(s.inflight))
	next := cur.Clone()

	if genErr == nil {
		st, err := section.Done(out.HTML, out.Code)
		if err != nil {
			genErr = &section.Failure{Kind: section.GenerationFailure, SectionID: id, Label: cur.Label, Err: err}
		} else {
			next.Status = st
		}
	}
	if genErr != nil {
		next.Status = section.Pending()
		s.sections[i] = next
		mpkg.ObserveGeneration(kind, "failed", dur)
		s.log.Warn().
			Str("section_id", id).
			Str("strategy", kind).
			Uint64("attempt", attempt).
			Dur("duration", dur).
			Err(genErr).
			Msg("section generation failed - back to pending")
		return next.Clone(), genErr
	}

	s.sections[i] = next
	mpkg.ObserveGeneration(kind, "done", dur)
	s.log.Info().
		Str("section_id", id).
		Int("order", cur.Order).
		Str("strategy", kind).
		Uint64("attempt", attempt).
		Dur("duration", dur).
		Int("html_len", len(out.HTML)).
		Msg("section generated")
	return next.Clone(), nil
}

// snapshot concatenates the html of done sections ordered before order.
// Callers hold s.mu.
func (s *Scheduler) snapshot(order int) strategy.Snapshot {
	var b strings.Builder
	for _, sec := range s.sections {
		if sec.Order >= order {
			break
		}
		if sec.Phase() == section.PhaseDone {
			b.WriteString(sec.HTML())
		}
	}
	return strategy.Snapshot{
		PreviousSectionsHTML: b.String(),
		TotalSections:        len(s.sections),
		PageTitle:            s.meta.title,
		PageContext:          s.meta.context,
	}
}

// filter returns copies of sections in a phase. Callers hold s.mu.
func (s *Scheduler) filter(p section.Phase) []section.Section {
	var out []section.Section
	for _, sec := range s.sections {
		if sec.Phase() == p {
			out = append(out, sec.Clone())
		}
	}
	return out
}
