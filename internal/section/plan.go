package section

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var ErrEmptyPlan = errors.New("plan has no sections")

// Plan is the ordered list of sections emitted by the planning step.
type Plan struct {
	PageName    string    `json:"pageName"`
	PageTitle   string    `json:"pageTitle,omitempty"`
	PageContext string    `json:"pageContext,omitempty"`
	Sections    []Section `json:"sections"`
}

// Normalize assigns ids to sections that have none, defaults unknown roles to
// RoleOther, and sorts sections by order.
func (p *Plan) Normalize() {
	for i := range p.Sections {
		s := &p.Sections[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if !s.Role.Valid() {
			s.Role = RoleOther
		}
		if s.Mode == "" {
			s.Mode = ModeNone
		}
		if s.Status == nil {
			s.Status = Pending()
		}
	}
	sort.SliceStable(p.Sections, func(i, j int) bool { return p.Sections[i].Order < p.Sections[j].Order })
}

// Validate checks ids are unique and orders are unique and contiguous.
// Sections must already be sorted by order (see Normalize).
func (p Plan) Validate() error {
	if len(p.Sections) == 0 {
		return ErrEmptyPlan
	}
	ids := make(map[string]struct{}, len(p.Sections))
	base := p.Sections[0].Order
	for i, s := range p.Sections {
		if s.ID == "" {
			return fmt.Errorf("section at position %d has no id", i)
		}
		if _, dup := ids[s.ID]; dup {
			return fmt.Errorf("duplicate section id %q", s.ID)
		}
		ids[s.ID] = struct{}{}
		if s.Order != base+i {
			return fmt.Errorf("section %q has order %d, want %d (orders must be unique and contiguous)", s.ID, s.Order, base+i)
		}
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
