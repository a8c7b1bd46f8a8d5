package imagerender

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/local/pagecomposer/internal/library"
)

// ErrUnresolvableImage is returned when a master image is present but cannot
// be referenced from markup.
var ErrUnresolvableImage = errors.New("master image is not resolvable")

var cropTpl = template.Must(template.New("crop").Parse(
	`<section data-section="{{.Label}}" data-render="crop" style="position:relative;width:100%;overflow:hidden;padding-top:{{.Padding}}%">` +
		`<img src="{{.URL}}" alt="{{.Label}}"{{if .Width}} width="{{.Width}}" height="{{.Height}}"{{end}} loading="lazy" ` +
		`style="position:absolute;top:0;left:0;width:100%;height:auto;transform:translateY({{.TranslateY}}%)">` +
		`</section>`))

type cropView struct {
	Label      string
	URL        template.URL
	Width      int
	Height     int
	Padding    template.CSS
	TranslateY template.CSS
}

// Render produces the markup of a crop container around the master image.
func Render(c Crop, img library.MasterImage, label string) (string, error) {
	u, err := imageURL(img.URL)
	if err != nil {
		return "", err
	}
	view := cropView{
		Label:      label,
		URL:        template.URL(u),
		Padding:    template.CSS(FormatPercent(c.Padding)),
		TranslateY: template.CSS(FormatPercent(c.TranslateY)),
	}
	if img.Width > 0 && img.Height > 0 {
		view.Width, view.Height = img.Width, img.Height
	}
	var buf bytes.Buffer
	if err := cropTpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render crop: %w", err)
	}
	return buf.String(), nil
}

// CheckImage reports ErrUnresolvableImage when img cannot be referenced from
// crop markup.
func CheckImage(img library.MasterImage) error {
	_, err := imageURL(img.URL)
	return err
}

// FormatPercent prints a percentage without trailing zeros.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func imageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrUnresolvableImage
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnresolvableImage, err)
	}
	switch u.Scheme {
	case "http", "https", "data", "":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrUnresolvableImage, u.Scheme)
	}
	if u.Scheme == "" && u.Path == "" {
		return "", ErrUnresolvableImage
	}
	return u.String(), nil
}
