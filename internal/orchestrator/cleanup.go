package orchestrator

import (
    "context"
    "time"

    "github.com/rs/zerolog/log"
)

// ReapIdle ends sessions untouched for at least maxAge that have nothing in
// flight. It returns the number of sessions removed.
func (o *Orchestrator) ReapIdle(maxAge time.Duration) int {
    now := time.Now()
    var stale []string
    o.mu.RLock()
    for id, s := range o.sessions {
        if now.Sub(s.idleSince()) < maxAge { continue }
        if len(s.sched.Inflight()) > 0 { continue }
        stale = append(stale, id)
    }
    o.mu.RUnlock()

    for _, id := range stale {
        o.End(id)
    }
    if len(stale) > 0 {
        log.Info().Int("reaped", len(stale)).Dur("max_idle", maxAge).Msg("idle sessions reaped")
    }
    return len(stale)
}

// RunReaper calls ReapIdle periodically until ctx is done. A non-positive
// maxAge disables it.
func (o *Orchestrator) RunReaper(ctx context.Context, maxAge time.Duration) {
    if maxAge <= 0 { return }
    every := maxAge / 4
    if every < time.Minute { every = time.Minute }
    ticker := time.NewTicker(every)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            o.ReapIdle(maxAge)
        }
    }
}
