// Package assembler joins finished sections into the final page and hands it
// to persistence.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	mpkg "github.com/local/pagecomposer/internal/metrics"
	"github.com/local/pagecomposer/internal/section"
)

// Document is the assembled page.
type Document struct {
	HTML     string   `json:"finalHtml"`
	Code     string   `json:"finalCode"`
	Included []string `json:"included"`
	Omitted  []string `json:"omitted"`
}

// Assemble concatenates html and code of done sections in order, with no
// separator. Pending and skipped sections are left out silently; completeness
// is the caller's concern.
func Assemble(sections []section.Section) Document {
	sorted := make([]section.Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	var html, code strings.Builder
	doc := Document{}
	for _, s := range sorted {
		if s.Phase() != section.PhaseDone {
			doc.Omitted = append(doc.Omitted, s.ID)
			continue
		}
		html.WriteString(s.HTML())
		code.WriteString(s.Code())
		doc.Included = append(doc.Included, s.ID)
	}
	doc.HTML = html.String()
	doc.Code = code.String()
	return doc
}

// SaveRequest is what persistence receives.
type SaveRequest struct {
	PageName  string            `json:"pageName"`
	Sections  []section.Section `json:"sections"`
	FinalHTML string            `json:"finalHtml"`
	FinalCode string            `json:"finalCode"`
	SavedAt   time.Time         `json:"savedAt"`
}

// Ack identifies a stored page.
type Ack struct {
	Backend  string `json:"backend"`
	Location string `json:"location"`
}

// Persistence stores assembled pages.
type Persistence interface {
	Name() string
	Save(ctx context.Context, req SaveRequest) (Ack, error)
}

var ErrNoPageName = errors.New("page name is required")

// Save assembles sections and stores the result.
func Save(ctx context.Context, p Persistence, pageName string, sections []section.Section) (Ack, Document, error) {
	if strings.TrimSpace(pageName) == "" {
		return Ack{}, Document{}, ErrNoPageName
	}
	doc := Assemble(sections)
	ordered := make([]section.Section, len(sections))
	for i, s := range sections {
		ordered[i] = s.Clone()
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	ack, err := p.Save(ctx, SaveRequest{
		PageName:  pageName,
		Sections:  ordered,
		FinalHTML: doc.HTML,
		FinalCode: doc.Code,
		SavedAt:   time.Now().UTC(),
	})
	mpkg.IncSaved(p.Name(), err == nil)
	if err != nil {
		log.Error().Err(err).Str("page", pageName).Str("backend", p.Name()).Msg("failed to save page")
		return Ack{}, doc, fmt.Errorf("save page %q: %w", pageName, err)
	}
	log.Info().
		Str("page", pageName).
		Str("backend", ack.Backend).
		Str("location", ack.Location).
		Int("sections", len(doc.Included)).
		Int("omitted", len(doc.Omitted)).
		Int("html_len", len(doc.HTML)).
		Msg("page saved")
	return ack, doc, nil
}
