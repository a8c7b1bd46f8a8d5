package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pagecomposer/internal/assembler"
	"github.com/local/pagecomposer/internal/geometry"
	"github.com/local/pagecomposer/internal/library"
	"github.com/local/pagecomposer/internal/section"
)

func TestPageKey(t *testing.T) {
	assert.Equal(t, "home-page", PageKey("Home Page"))
	k := PageKey("!!!")
	_, err := uuid.Parse(k)
	assert.NoError(t, err)
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect("not a url")
	assert.Error(t, err)
}

// Redis tests run only against a real server, e.g.
// TEST_REDIS_URL=redis://localhost:6379/15 go test ./internal/store
func testNamespace(t *testing.T) (*SourceStore, *PageStore) {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	c, err := Connect(url)
	require.NoError(t, err)
	ns := "test-" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := c.Keys(ctx, ns+":*").Result()
		if len(keys) > 0 {
			c.Del(ctx, keys...)
		}
		_ = c.Close()
	})
	return NewSourceStore(c, ns), NewPageStore(c, ns)
}

func TestSourceStore_RoundTrip(t *testing.T) {
	sources, _ := testNamespace(t)
	ctx := context.Background()

	_, err := sources.GetSource(ctx, "missing")
	assert.ErrorIs(t, err, library.ErrNotFound)

	src := library.Source{
		ID:          "s1",
		Elements:    []geometry.Element{{Tag: "body", Box: geometry.Box{W: 1000, H: 2000}}},
		MasterImage: &library.MasterImage{URL: "https://cdn.test/s1.png"},
	}
	require.NoError(t, sources.PutSource(ctx, src))
	got, err := sources.GetSource(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, src, got)

	assert.Error(t, sources.PutSource(ctx, library.Source{}))
}

func TestPageStore_SaveAndGet(t *testing.T) {
	_, pages := testNamespace(t)
	ctx := context.Background()

	st, err := section.Done("<a/>", "A")
	require.NoError(t, err)
	req := assembler.SaveRequest{
		PageName:  "Home",
		Sections:  []section.Section{{ID: "a", Mode: section.ModeNone, Status: st}},
		FinalHTML: "<a/>",
		FinalCode: "A",
		SavedAt:   time.Now().UTC().Truncate(time.Second),
	}
	ack, err := pages.Save(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "redis", ack.Backend)

	got, ok, err := pages.GetPage(ctx, "Home")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<a/>", got.FinalHTML)
	assert.True(t, req.SavedAt.Equal(got.SavedAt))
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "<a/>", got.Sections[0].HTML())

	_, ok, err = pages.GetPage(ctx, "Nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
