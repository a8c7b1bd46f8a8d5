package imagerender

import (
	"math"

	"github.com/local/pagecomposer/internal/geometry"
)

// FallbackPadding is the container padding used when the root box has no width.
const FallbackPadding = 10.0

// minTranslateY keeps a selection starting at the root's bottom edge inside
// the open bound -100.
const minTranslateY = -99.9999

// Crop parameterizes a vertical-crop container: a box whose height is Padding
// percent of its own width, holding the master image at 100% width shifted up
// by TranslateY percent of the image height.
type Crop struct {
	TranslateY float64 `json:"translateY"`
	Padding    float64 `json:"padding"`
}

// ComputeCrop derives the crop for a selected region of a source. The selection
// is clamped to the root box vertically. Same inputs always produce the same Crop.
func ComputeCrop(root, selection geometry.Box) Crop {
	minY := clamp(selection.Y, root.Y, root.Bottom())
	maxY := clamp(selection.Bottom(), minY, root.Bottom())
	if root.H <= 0 {
		// nothing to clamp against
		minY, maxY = selection.Y, selection.Bottom()
	}

	relY := minY - root.Y
	cropHeight := maxY - minY

	c := Crop{TranslateY: 0, Padding: FallbackPadding}
	if root.H > 0 {
		c.TranslateY = -(relY / root.H) * 100
	}
	if root.W > 0 {
		c.Padding = (cropHeight / root.W) * 100
	}
	c.TranslateY = math.Max(minTranslateY, round4(c.TranslateY))
	c.Padding = math.Max(0, round4(c.Padding))
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round4 rounds to four decimals and folds negative zero into zero.
func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		return 0
	}
	return r
}
