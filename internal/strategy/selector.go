package strategy

import (
	"context"
	"errors"

	"github.com/local/pagecomposer/internal/ai"
	"github.com/local/pagecomposer/internal/geometry"
	"github.com/local/pagecomposer/internal/imagerender"
	"github.com/local/pagecomposer/internal/library"
	"github.com/local/pagecomposer/internal/section"
)

// Selector picks exactly one strategy per section.
type Selector struct {
	lib library.Library
}

func NewSelector(lib library.Library) *Selector { return &Selector{lib: lib} }

// Select resolves the section's design reference and returns the strategy to
// run. Errors are *section.Failure values local to this section.
func (s *Selector) Select(ctx context.Context, sec section.Section, snap Snapshot) (Strategy, error) {
	cfg := sec.Config()
	keep := sec.Mode == section.ModeClone && cfg.CloneContent == section.CloneKeep

	if keep && sec.SourceID() == "" {
		return nil, failure(section.PreconditionFailure, sec, section.ErrMissingSource)
	}
	if sec.Mode == section.ModeNone || sec.SourceID() == "" {
		return GenericGenerate{Request: genericRequest(sec, cfg, snap)}, nil
	}

	res, img, err := s.resolve(ctx, sec)
	if err != nil {
		return nil, failure(section.LookupFailure, sec, err)
	}

	if keep {
		fb := genericRequest(sec, cfg, snap)
		fb.Mode = string(section.ModeClone)
		fb.Elements = res.Elements
		fallback := FallbackRender{Request: fb}
		if img == nil {
			return fallback, nil
		}
		return Crop{
			SectionID: sec.ID,
			Label:     sec.Label,
			Crop:      imagerender.ComputeCrop(res.RootBox, res.Selection),
			Image:     *img,
			Fallback:  fallback,
		}, nil
	}

	if sec.Mode == section.ModeClone && cfg.CloneContent == section.CloneReplace {
		// swapped content still follows the source's palette, fonts and layout
		cfg.InheritColors = true
		cfg.InheritFonts = true
		cfg.InheritLayout = true
	}
	return ComposedGenerate{Request: ai.ComposedRequest{
		SectionID:            sec.ID,
		SourceElements:       res.Elements,
		ReferenceConfig:      cfg,
		SectionLabel:         sec.Label,
		Order:                sec.Order,
		TotalSections:        snap.TotalSections,
		PreviousSectionsHTML: snap.PreviousSectionsHTML,
		PageContext:          snap.PageContext,
	}}, nil
}

func (s *Selector) resolve(ctx context.Context, sec section.Section) (geometry.Resolution, *library.MasterImage, error) {
	ref := sec.DesignRef
	src, err := s.lib.GetSource(ctx, ref.SourceID)
	if err != nil {
		return geometry.Resolution{}, nil, err
	}
	elements, img, err := src.Tree(ref.DeviceVariant)
	if err != nil {
		return geometry.Resolution{}, nil, err
	}
	res, err := geometry.Resolve(elements, ref.ElementIndices)
	if err != nil {
		return geometry.Resolution{}, nil, err
	}
	return res, img, nil
}

func genericRequest(sec section.Section, cfg section.ReferenceConfig, snap Snapshot) ai.GenericRequest {
	return ai.GenericRequest{
		SectionID:            sec.ID,
		Mode:                 string(sec.Mode),
		PageTitle:            snap.PageTitle,
		SectionLabel:         sec.Label,
		SectionRole:          string(sec.Role),
		Order:                sec.Order,
		TotalSections:        snap.TotalSections,
		PreviousSectionsHTML: snap.PreviousSectionsHTML,
		ContentMode:          cfg.ContentMode,
		ManualContent:        cfg.ManualContent,
		CustomInstructions:   cfg.CustomInstructions,
	}
}

func failure(kind section.FailureKind, sec section.Section, err error) *section.Failure {
	var f *section.Failure
	if errors.As(err, &f) {
		return f
	}
	return &section.Failure{Kind: kind, SectionID: sec.ID, Label: sec.Label, Err: err}
}
