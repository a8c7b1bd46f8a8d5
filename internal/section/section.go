// Package section holds the canonical model of one page section and the plan
// that orders them.
package section

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Role is presentational only; the pipeline never branches on it.
type Role string

const (
	RoleHeader  Role = "header"
	RoleHero    Role = "hero"
	RoleSection Role = "section"
	RoleFooter  Role = "footer"
	RoleNav     Role = "nav"
	RoleCTA     Role = "cta"
	RoleCard    Role = "card"
	RoleOther   Role = "other"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHeader, RoleHero, RoleSection, RoleFooter, RoleNav, RoleCTA, RoleCard, RoleOther:
		return true
	}
	return false
}

// Mode selects the generation family of a section.
type Mode string

const (
	ModeClone     Mode = "clone"
	ModeReference Mode = "reference"
	ModeNone      Mode = "none"
)

func (m Mode) Valid() bool {
	return m == ModeClone || m == ModeReference || m == ModeNone
}

type CloneContent string

const (
	CloneKeep    CloneContent = "keep"
	CloneReplace CloneContent = "replace"
)

type ContentMode string

const (
	ContentAI     ContentMode = "ai"
	ContentDummy  ContentMode = "dummy"
	ContentManual ContentMode = "manual"
)

// DesignRef points at a design source, optionally a device variant and a
// subset of its elements. No indices means the whole source.
type DesignRef struct {
	SourceID       string `json:"sourceId"`
	DeviceVariant  string `json:"deviceVariant,omitempty"`
	ElementIndices []int  `json:"elementIndices,omitempty"`
}

// ReferenceConfig holds the generation knobs of a section.
type ReferenceConfig struct {
	CloneContent       CloneContent `json:"cloneContent,omitempty"`
	InheritColors      bool         `json:"inheritColors"`
	InheritFonts       bool         `json:"inheritFonts"`
	InheritLayout      bool         `json:"inheritLayout"`
	ContentMode        ContentMode  `json:"contentMode,omitempty"`
	ManualContent      string       `json:"manualContent,omitempty"`
	CustomInstructions string       `json:"customInstructions,omitempty"`
}

// DefaultReferenceConfig is applied when a section carries no configuration.
func DefaultReferenceConfig() ReferenceConfig {
	return ReferenceConfig{
		CloneContent:  CloneKeep,
		InheritColors: true,
		InheritFonts:  true,
		InheritLayout: true,
		ContentMode:   ContentAI,
	}
}

// UnmarshalJSON fills fields absent from the input with the defaults, so a
// partial configuration inherits colors, fonts and layout unless told not to.
func (c *ReferenceConfig) UnmarshalJSON(b []byte) error {
	type plain ReferenceConfig
	v := plain(DefaultReferenceConfig())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = ReferenceConfig(v)
	return nil
}

// Section is one ordered unit of the page being composed.
type Section struct {
	ID              string
	Order           int
	Role            Role
	Label           string
	Mode            Mode
	DesignRef       *DesignRef
	ReferenceConfig *ReferenceConfig
	Status          Status
}

func (s Section) Phase() Phase {
	if s.Status == nil {
		return PhasePending
	}
	return s.Status.Phase()
}

func (s Section) HTML() string { h, _ := Render(s.Status); return h }
func (s Section) Code() string { _, c := Render(s.Status); return c }

// Validate checks the section's closed-set fields.
func (s Section) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("section %q has unknown mode %q", s.ID, s.Mode)
	}
	if rc := s.ReferenceConfig; rc != nil {
		switch rc.CloneContent {
		case "", CloneKeep, CloneReplace:
		default:
			return fmt.Errorf("section %q has unknown cloneContent %q", s.ID, rc.CloneContent)
		}
		switch rc.ContentMode {
		case "", ContentAI, ContentDummy, ContentManual:
		default:
			return fmt.Errorf("section %q has unknown contentMode %q", s.ID, rc.ContentMode)
		}
	}
	return nil
}

// Config returns the stored configuration merged over the defaults.
func (s Section) Config() ReferenceConfig {
	if s.ReferenceConfig == nil {
		return DefaultReferenceConfig()
	}
	c := *s.ReferenceConfig
	def := DefaultReferenceConfig()
	if c.CloneContent == "" {
		c.CloneContent = def.CloneContent
	}
	if c.ContentMode == "" {
		c.ContentMode = def.ContentMode
	}
	return c
}

// SourceID returns the referenced source id, empty when there is none.
func (s Section) SourceID() string {
	if s.DesignRef == nil {
		return ""
	}
	return s.DesignRef.SourceID
}

// Clone returns a deep copy so the copy can replace the original wholesale.
func (s Section) Clone() Section {
	out := s
	if s.DesignRef != nil {
		ref := *s.DesignRef
		ref.ElementIndices = slices.Clone(s.DesignRef.ElementIndices)
		out.DesignRef = &ref
	}
	if s.ReferenceConfig != nil {
		rc := *s.ReferenceConfig
		out.ReferenceConfig = &rc
	}
	if out.Status == nil {
		out.Status = Pending()
	}
	return out
}

type sectionJSON struct {
	ID              string           `json:"id"`
	Order           int              `json:"order"`
	Role            Role             `json:"role,omitempty"`
	Label           string           `json:"label"`
	Mode            Mode             `json:"mode"`
	DesignRef       *DesignRef       `json:"designRef,omitempty"`
	ReferenceConfig *ReferenceConfig `json:"referenceConfig,omitempty"`
	Status          Phase            `json:"status"`
	HTML            string           `json:"html,omitempty"`
	Code            string           `json:"code,omitempty"`
}

func (s Section) MarshalJSON() ([]byte, error) {
	html, code := Render(s.Status)
	return json.Marshal(sectionJSON{
		ID:              s.ID,
		Order:           s.Order,
		Role:            s.Role,
		Label:           s.Label,
		Mode:            s.Mode,
		DesignRef:       s.DesignRef,
		ReferenceConfig: s.ReferenceConfig,
		Status:          s.Phase(),
		HTML:            html,
		Code:            code,
	})
}

// UnmarshalJSON accepts pending, skipped and done sections. A generating status
// is read as pending since no work is in flight for a freshly decoded section.
func (s *Section) UnmarshalJSON(b []byte) error {
	var v sectionJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Section{
		ID:              v.ID,
		Order:           v.Order,
		Role:            v.Role,
		Label:           v.Label,
		Mode:            v.Mode,
		DesignRef:       v.DesignRef,
		ReferenceConfig: v.ReferenceConfig,
		Status:          Pending(),
	}
	switch v.Status {
	case PhaseDone:
		st, err := Done(v.HTML, v.Code)
		if err != nil {
			return fmt.Errorf("section %s: %w", v.ID, err)
		}
		s.Status = st
	case PhaseSkipped:
		s.Status = Skipped()
	}
	return nil
}
