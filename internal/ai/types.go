package ai

import (
    "context"
    "errors"
    "fmt"

    "github.com/local/pagecomposer/internal/geometry"
    "github.com/local/pagecomposer/internal/section"
)

// ComposedRequest asks the generation service to reproduce or reinterpret a
// region of a design source in the context of the sections before it.
type ComposedRequest struct {
    SectionID            string                  `json:"sectionId"`
    SourceElements       []geometry.Element      `json:"sourceElements"`
    ReferenceConfig      section.ReferenceConfig `json:"referenceConfig"`
    SectionLabel         string                  `json:"sectionLabel"`
    Order                int                     `json:"order"`
    TotalSections        int                     `json:"totalSections"`
    PreviousSectionsHTML string                  `json:"previousSectionsHtml"`
    PageContext          string                  `json:"pageContext,omitempty"`
}

// GenericRequest asks the generation service for a section from its label and
// content flags. Elements are only set for the clone fallback (Mode "clone").
type GenericRequest struct {
    SectionID            string              `json:"sectionId"`
    Mode                 string              `json:"mode,omitempty"`
    Elements             []geometry.Element  `json:"elements,omitempty"`
    PageTitle            string              `json:"pageTitle,omitempty"`
    SectionLabel         string              `json:"sectionLabel"`
    SectionRole          string              `json:"sectionRole,omitempty"`
    Order                int                 `json:"order"`
    TotalSections        int                 `json:"totalSections"`
    PreviousSectionsHTML string              `json:"previousSectionsHtml"`
    ContentMode          section.ContentMode `json:"contentMode,omitempty"`
    ManualContent        string              `json:"manualContent,omitempty"`
    CustomInstructions   string              `json:"customInstructions,omitempty"`
}

type Response struct {
    HTML string `json:"html"`
    Code string `json:"code"`
}

// Client is the generation service contract.
type Client interface {
    Name() string
    Composed(ctx context.Context, req ComposedRequest) (Response, error)
    Generic(ctx context.Context, req GenericRequest) (Response, error)
}

var (
    ErrRateLimited = errors.New("rate_limited")
    ErrEmptyOutput = errors.New("generation service returned no markup")
)

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// HTTPError represents a non-success status from the generation service.
type HTTPError struct {
    StatusCode int
    Body       string
    Service    string
}

func (e *HTTPError) Error() string {
    return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.Service, e.Body)
}

// ValidationError represents a request the service rejected as malformed.
type ValidationError struct {
    Message string
}

func (e *ValidationError) Error() string {
    return fmt.Sprintf("validation error: %s", e.Message)
}
