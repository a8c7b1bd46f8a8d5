package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflight_AcquireHonoursContext(t *testing.T) {
	l := New(1)
	rel, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer rel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInflight_ReleaseFreesSlot(t *testing.T) {
	l := New(1)
	rel, err := l.Acquire(context.Background())
	require.NoError(t, err)
	rel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rel, err = l.Acquire(ctx)
	require.NoError(t, err)
	rel()
}

func TestInflight_Unlimited(t *testing.T) {
	for _, l := range []*Inflight{New(0), New(-3), nil} {
		var releases []func()
		for i := 0; i < 100; i++ {
			rel, err := l.Acquire(context.Background())
			require.NoError(t, err)
			releases = append(releases, rel)
		}
		for _, rel := range releases {
			rel()
		}
	}
}
