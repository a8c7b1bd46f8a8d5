// Package strategy decides how a section's markup is produced and runs that
// decision.
//
// The four strategies form a closed set. Each one dispatches to its own method
// on Handler, so adding a strategy means adding a Handler method, and every
// Handler implementation stops compiling until it handles the new case.
package strategy

import (
	"context"

	"github.com/local/pagecomposer/internal/ai"
	"github.com/local/pagecomposer/internal/imagerender"
	"github.com/local/pagecomposer/internal/library"
)

type Kind string

const (
	KindCrop     Kind = "crop"
	KindFallback Kind = "fallback_render"
	KindComposed Kind = "composed_generate"
	KindGeneric  Kind = "generic_generate"
)

// Snapshot is the context captured when generation of a section is initiated.
// It is never refreshed while the call is in flight.
type Snapshot struct {
	PreviousSectionsHTML string
	TotalSections        int
	PageTitle            string
	PageContext          string
}

// Output is a rendered section.
type Output struct {
	HTML     string
	Code     string
	Strategy Kind
	// Downgraded is set when a crop could not be rendered and the fallback ran.
	Downgraded bool
}

type Strategy interface {
	Kind() Kind
	Dispatch(ctx context.Context, h Handler) (Output, error)
	sealed()
}

// Handler executes each strategy kind.
type Handler interface {
	Crop(ctx context.Context, s Crop) (Output, error)
	FallbackRender(ctx context.Context, s FallbackRender) (Output, error)
	ComposedGenerate(ctx context.Context, s ComposedGenerate) (Output, error)
	GenericGenerate(ctx context.Context, s GenericGenerate) (Output, error)
}

// Crop renders the master image through the crop container. No network call.
type Crop struct {
	SectionID string
	Label     string
	Crop      imagerender.Crop
	Image     library.MasterImage
	// Fallback runs when the image turns out not to be resolvable.
	Fallback FallbackRender
}

// FallbackRender is a generic service call carrying the resolved elements,
// tagged as a clone.
type FallbackRender struct {
	Request ai.GenericRequest
}

// ComposedGenerate sends elements, merged configuration and prior context.
type ComposedGenerate struct {
	Request ai.ComposedRequest
}

// GenericGenerate sends only label, role and content flags.
type GenericGenerate struct {
	Request ai.GenericRequest
}

// Local reports whether the crop renders without the fallback, i.e. its master
// image can be referenced from markup.
func (s Crop) Local() bool { return imagerender.CheckImage(s.Image) == nil }

func (Crop) Kind() Kind             { return KindCrop }
func (FallbackRender) Kind() Kind   { return KindFallback }
func (ComposedGenerate) Kind() Kind { return KindComposed }
func (GenericGenerate) Kind() Kind  { return KindGeneric }

func (s Crop) Dispatch(ctx context.Context, h Handler) (Output, error) { return h.Crop(ctx, s) }
func (s FallbackRender) Dispatch(ctx context.Context, h Handler) (Output, error) {
	return h.FallbackRender(ctx, s)
}
func (s ComposedGenerate) Dispatch(ctx context.Context, h Handler) (Output, error) {
	return h.ComposedGenerate(ctx, s)
}
func (s GenericGenerate) Dispatch(ctx context.Context, h Handler) (Output, error) {
	return h.GenericGenerate(ctx, s)
}

func (Crop) sealed()             {}
func (FallbackRender) sealed()   {}
func (ComposedGenerate) sealed() {}
func (GenericGenerate) sealed()  {}
