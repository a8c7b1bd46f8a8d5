package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONWithServiceAndSession(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "debug", Output: &buf}))
	defer Close()

	l := Session("abc")
	l.Info().Str("section_id", "hero").Msg("section generated")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "pagecomposer", ev["service"])
	assert.Equal(t, "abc", ev["session_id"])
	assert.Equal(t, "hero", ev["section_id"])
	assert.Equal(t, "info", ev["level"])
}

func TestInit_LevelFilter(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "warn", Output: &buf, Service: "svc"}))
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), `"service":"svc"`)
}

func TestAxiomWriter_FiltersBelowMin(t *testing.T) {
	c := &axiomClient{ch: make(chan axiom.Event, 1)}
	w := &axiomWriter{client: c, service: "svc", min: zerolog.InfoLevel}

	_, err := w.Write([]byte(`{"level":"debug","message":"noise"}`))
	require.NoError(t, err)
	assert.Len(t, c.ch, 0)

	_, err = w.Write([]byte(`{"level":"error","message":"boom"}`))
	require.NoError(t, err)
	require.Len(t, c.ch, 1)
	ev := <-c.ch
	assert.Equal(t, "svc", ev["service"])

	// full buffer drops instead of blocking
	_, _ = w.Write([]byte(`{"level":"error","message":"a"}`))
	_, _ = w.Write([]byte(`{"level":"error","message":"b"}`))
	assert.EqualValues(t, 1, c.dropped.Load())
}
