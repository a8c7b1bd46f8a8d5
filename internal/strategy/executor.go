package strategy

import (
	"context"
	"errors"

	"github.com/local/pagecomposer/internal/ai"
	"github.com/local/pagecomposer/internal/imagerender"
	mpkg "github.com/local/pagecomposer/internal/metrics"
	"github.com/local/pagecomposer/internal/section"
	"github.com/rs/zerolog/log"
)

// Executor runs strategies against the generation service.
type Executor struct {
	client ai.Client
}

var _ Handler = (*Executor)(nil)

func NewExecutor(client ai.Client) *Executor { return &Executor{client: client} }

// Crop renders locally. An unresolvable master image is not an error for the
// caller: the attempt is downgraded to the fallback render. The downgrade is
// decided per attempt and never remembered.
func (e *Executor) Crop(ctx context.Context, s Crop) (Output, error) {
	html, err := imagerender.Render(s.Crop, s.Image, s.Label)
	if err != nil {
		if !errors.Is(err, imagerender.ErrUnresolvableImage) {
			return Output{}, &section.Failure{Kind: section.PreconditionFailure, SectionID: s.SectionID, Label: s.Label, Err: err}
		}
		mpkg.IncDowngrade()
		log.Info().
			Str("section_id", s.SectionID).
			Err(err).
			Msg("master image not resolvable - downgrading crop to fallback render")
		out, ferr := e.FallbackRender(ctx, s.Fallback)
		out.Downgraded = true
		return out, ferr
	}
	return Output{HTML: html, Code: html, Strategy: KindCrop}, nil
}

func (e *Executor) FallbackRender(ctx context.Context, s FallbackRender) (Output, error) {
	resp, err := e.client.Generic(ctx, s.Request)
	if err != nil {
		return Output{Strategy: KindFallback}, generationFailure(s.Request.SectionID, s.Request.SectionLabel, err)
	}
	return Output{HTML: resp.HTML, Code: resp.Code, Strategy: KindFallback}, nil
}

func (e *Executor) ComposedGenerate(ctx context.Context, s ComposedGenerate) (Output, error) {
	resp, err := e.client.Composed(ctx, s.Request)
	if err != nil {
		return Output{Strategy: KindComposed}, generationFailure(s.Request.SectionID, s.Request.SectionLabel, err)
	}
	return Output{HTML: resp.HTML, Code: resp.Code, Strategy: KindComposed}, nil
}

func (e *Executor) GenericGenerate(ctx context.Context, s GenericGenerate) (Output, error) {
	resp, err := e.client.Generic(ctx, s.Request)
	if err != nil {
		return Output{Strategy: KindGeneric}, generationFailure(s.Request.SectionID, s.Request.SectionLabel, err)
	}
	return Output{HTML: resp.HTML, Code: resp.Code, Strategy: KindGeneric}, nil
}

func generationFailure(id, label string, err error) error {
	return &section.Failure{Kind: section.GenerationFailure, SectionID: id, Label: label, Err: err}
}
