package orchestrator

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/pagecomposer/internal/assembler"
    "github.com/local/pagecomposer/internal/scheduler"
    "github.com/local/pagecomposer/internal/section"
    "github.com/local/pagecomposer/internal/statuscheck"
    "github.com/local/pagecomposer/internal/strategy"
)

// StatusChecker reports on the collaborators behind /status.
type StatusChecker interface {
    Summary(ctx context.Context) statuscheck.Summary
}

// PageReader loads previously saved pages. Only some backends can.
type PageReader interface {
    GetPage(ctx context.Context, name string) (assembler.SaveRequest, bool, error)
}

type Dependencies struct {
    Selector    scheduler.Selector
    Handler     strategy.Handler
    Persistence assembler.Persistence
    Pages       PageReader
    Status      StatusChecker
}

type Options struct {
    // Concurrency caps bulk generation per session.
    Concurrency int
}

// session is one wizard run. Its sections live only as long as the session.
type session struct {
    id      string
    created time.Time
    sched   *scheduler.Scheduler

    mu       sync.Mutex
    lastSeen time.Time
}

func (s *session) touch() {
    s.mu.Lock()
    s.lastSeen = time.Now()
    s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.lastSeen
}

type Orchestrator struct {
    deps Dependencies
    opts Options

    mu       sync.RWMutex
    sessions map[string]*session
}

func New(deps Dependencies, opts Options) *Orchestrator {
    return &Orchestrator{deps: deps, opts: opts, sessions: map[string]*session{}}
}

// Create starts a session for plan. Sections that render as crops are
// generated before Create returns.
func (o *Orchestrator) Create(ctx context.Context, plan section.Plan) (string, *scheduler.Scheduler, error) {
    id := uuid.NewString()
    sched := scheduler.New(scheduler.Dependencies{Selector: o.deps.Selector, Handler: o.deps.Handler},
        scheduler.Options{SessionID: id, Concurrency: o.opts.Concurrency})
    if err := sched.Load(ctx, plan); err != nil { return "", nil, err }

    now := time.Now()
    o.mu.Lock()
    o.sessions[id] = &session{id: id, created: now, lastSeen: now, sched: sched}
    n := len(o.sessions)
    o.mu.Unlock()
    log.Info().Str("session_id", id).Str("page", plan.PageName).Int("sessions", n).Msg("session created")
    return id, sched, nil
}

func (o *Orchestrator) lookup(id string) (*session, bool) {
    o.mu.RLock()
    s, ok := o.sessions[id]
    o.mu.RUnlock()
    if ok { s.touch() }
    return s, ok
}

// End drops a session. Results of attempts still in flight are discarded
// along with it.
func (o *Orchestrator) End(id string) bool {
    o.mu.Lock()
    s, ok := o.sessions[id]
    delete(o.sessions, id)
    o.mu.Unlock()
    if ok {
        log.Info().Str("session_id", id).Int("inflight", len(s.sched.Inflight())).Msg("session ended")
    }
    return ok
}

// Len returns the number of live sessions.
func (o *Orchestrator) Len() int {
    o.mu.RLock()
    defer o.mu.RUnlock()
    return len(o.sessions)
}
