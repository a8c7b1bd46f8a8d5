package limiter

import (
    "context"

    "golang.org/x/sync/semaphore"
)

// Inflight caps concurrent generation service calls in this process. Callers
// wait for a slot instead of being rejected.
type Inflight struct {
    sem *semaphore.Weighted
}

// New returns a limiter with max slots. max <= 0 disables limiting.
func New(max int) *Inflight {
    if max <= 0 { return &Inflight{} }
    return &Inflight{sem: semaphore.NewWeighted(int64(max))}
}

// Acquire blocks until a slot is free or ctx is done. The returned func
// releases the slot and is safe to call once.
func (l *Inflight) Acquire(ctx context.Context) (func(), error) {
    if l == nil || l.sem == nil { return func() {}, nil }
    if err := l.sem.Acquire(ctx, 1); err != nil { return nil, err }
    return func() { l.sem.Release(1) }, nil
}
