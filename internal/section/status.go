package section

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Phase names the lifecycle state of a section.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseGenerating Phase = "generating"
	PhaseDone       Phase = "done"
	PhaseSkipped    Phase = "skipped"
)

var ErrEmptyRender = errors.New("rendered html is empty")

// Status is a closed set of lifecycle states. Only this package can implement
// it, and a done status can only be built through Done, which rejects empty
// html.
type Status interface {
	Phase() Phase
	status()
}

type pending struct{}

type generating struct{ attempt uint64 }

type done struct {
	html string
	code string
}

type skipped struct{}

func (pending) Phase() Phase    { return PhasePending }
func (generating) Phase() Phase { return PhaseGenerating }
func (done) Phase() Phase       { return PhaseDone }
func (skipped) Phase() Phase    { return PhaseSkipped }

func (pending) status()    {}
func (generating) status() {}
func (done) status()       {}
func (skipped) status()    {}

func Pending() Status { return pending{} }

func Skipped() Status { return skipped{} }

// Generating marks an in-flight attempt. Attempts are numbered per section so
// late results of superseded attempts can be recognised.
func Generating(attempt uint64) Status { return generating{attempt: attempt} }

// Done builds the terminal success status. code falls back to html when empty.
func Done(html, code string) (Status, error) {
	if html == "" {
		return nil, ErrEmptyRender
	}
	if code == "" {
		code = html
	}
	return done{html: html, code: code}, nil
}

// Attempt returns the attempt number of a generating status.
func Attempt(st Status) (uint64, bool) {
	g, ok := st.(generating)
	return g.attempt, ok
}

// Render returns html and code of a done status, or empty strings otherwise.
func Render(st Status) (html, code string) {
	if d, ok := st.(done); ok {
		return d.html, d.code
	}
	return "", ""
}

func parsePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case PhasePending, PhaseGenerating, PhaseDone, PhaseSkipped:
		return p, nil
	case "":
		return PhasePending, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (p *Phase) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := parsePhase(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
