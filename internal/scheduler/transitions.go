package scheduler

import (
	"fmt"
	"sort"

	"github.com/local/pagecomposer/internal/section"
)

// Skip marks a pending or done section as skipped. Skipping is terminal for
// the session. Skipping an already skipped section is a no-op.
func (s *Scheduler) Skip(id string) (section.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return section.Section{}, fmt.Errorf("%w: %s", section.ErrNotFound, id)
	}
	cur := s.sections[i]
	switch cur.Phase() {
	case section.PhaseSkipped:
		return cur.Clone(), nil
	case section.PhaseGenerating:
		return cur.Clone(), fmt.Errorf("%w: cannot skip %s while generating", section.ErrInvalidTransition, id)
	}
	next := cur.Clone()
	next.Status = section.Skipped()
	s.sections[i] = next
	s.log.Info().Str("section_id", id).Msg("section skipped")
	return next.Clone(), nil
}

// Edit applies change to a copy of the section and replaces it, discarding any
// previous render. An in-flight attempt is superseded. Id and order cannot be
// changed. An edited section is no longer treated as an automatic crop.
func (s *Scheduler) Edit(id string, change func(*section.Section)) (section.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return section.Section{}, fmt.Errorf("%w: %s", section.ErrNotFound, id)
	}
	cur := s.sections[i]
	if cur.Phase() == section.PhaseSkipped {
		return cur.Clone(), fmt.Errorf("%w: %s", section.ErrSkipped, id)
	}

	next := cur.Clone()
	if change != nil {
		change(&next)
	}
	next.ID, next.Order = cur.ID, cur.Order
	if err := next.Validate(); err != nil {
		return cur.Clone(), err
	}
	if !next.Role.Valid() {
		next.Role = section.RoleOther
	}
	next.Status = section.Pending()
	s.sections[i] = next
	delete(s.inflight, id)
	delete(s.auto, id)
	s.log.Info().Str("section_id", id).Str("was", string(cur.Phase())).Msg("section edited - back to pending")
	return next.Clone(), nil
}

// Sections returns copies of all sections in order.
func (s *Scheduler) Sections() []section.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]section.Section, len(s.sections))
	for i, sec := range s.sections {
		out[i] = sec.Clone()
	}
	return out
}

func (s *Scheduler) Section(id string) (section.Section, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return section.Section{}, false
	}
	return s.sections[i].Clone(), true
}

// Plan returns the page metadata with the current sections.
func (s *Scheduler) Plan() section.Plan {
	s.mu.Lock()
	meta := s.meta
	s.mu.Unlock()
	return section.Plan{
		PageName:    meta.name,
		PageTitle:   meta.title,
		PageContext: meta.context,
		Sections:    s.Sections(),
	}
}

// IsGenerating reports whether a section has an attempt in flight.
func (s *Scheduler) IsGenerating(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[id]
	return ok
}

// Inflight returns the ids currently generating, sorted.
func (s *Scheduler) Inflight() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.inflight))
	for id := range s.inflight {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsAuto reports whether a section was generated automatically at load.
func (s *Scheduler) IsAuto(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.auto[id]
	return ok
}
