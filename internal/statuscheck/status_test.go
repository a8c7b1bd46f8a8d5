package statuscheck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func up() Pinger   { return PingFunc(func(context.Context) error { return nil }) }
func down() Pinger { return PingFunc(func(context.Context) error { return errors.New("connection refused") }) }

func TestSummary(t *testing.T) {
	sum := New(Options{Redis: up(), Generation: up(), Backend: "redis"}).Summary(context.Background())
	assert.True(t, sum.OK())
	assert.Equal(t, "Connected", sum.Redis.Message)
	assert.Equal(t, "Available", sum.Generation.Message)

	sum = New(Options{Redis: down(), Generation: up(), Backend: "redis"}).Summary(context.Background())
	assert.False(t, sum.OK())
	assert.False(t, sum.Persistence.OK)
	assert.Equal(t, "connection refused", sum.Redis.Message)

	sum = New(Options{Redis: up(), Backend: "local"}).Summary(context.Background())
	assert.False(t, sum.Generation.OK)
	assert.True(t, sum.Persistence.OK)
}

func TestSummary_Persistence(t *testing.T) {
	c := New(Options{Redis: up(), Generation: up(), Backend: "s3"})
	assert.Equal(t, Status{OK: false, Message: "Bucket not configured"}, c.checkPersistence(context.Background()))

	c = New(Options{Backend: "ftp"})
	assert.False(t, c.checkPersistence(context.Background()).OK)
}

func TestTrimError(t *testing.T) {
	assert.Equal(t, "", trimError(nil))
	assert.Equal(t, "timeout", trimError(context.DeadlineExceeded))
	assert.Len(t, trimError(errors.New(strings.Repeat("x", 500))), 120)
}
