package imagerender

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/local/pagecomposer/internal/geometry"
)

func TestComputeCrop_Example(t *testing.T) {
	root := geometry.Box{X: 0, Y: 0, W: 1000, H: 2000}
	sel := geometry.Box{X: 0, Y: 200, W: 1000, H: 300}

	c := ComputeCrop(root, sel)
	assert.Equal(t, -10.0, c.TranslateY)
	assert.Equal(t, 30.0, c.Padding)
}

func TestComputeCrop_WholeRoot(t *testing.T) {
	root := geometry.Box{W: 1200, H: 600}
	c := ComputeCrop(root, root)
	assert.Equal(t, 0.0, c.TranslateY)
	assert.Equal(t, 50.0, c.Padding)
}

func TestComputeCrop_DegenerateRoot(t *testing.T) {
	sel := geometry.Box{Y: 100, H: 50}

	c := ComputeCrop(geometry.Box{W: 0, H: 1000}, sel)
	assert.Equal(t, FallbackPadding, c.Padding)

	c = ComputeCrop(geometry.Box{W: 1000, H: 0}, sel)
	assert.Equal(t, 0.0, c.TranslateY)
}

func TestComputeCrop_ClampsToRoot(t *testing.T) {
	root := geometry.Box{Y: 100, W: 1000, H: 1000}

	// starts above the root and runs past its bottom
	c := ComputeCrop(root, geometry.Box{Y: 0, H: 5000})
	assert.Equal(t, 0.0, c.TranslateY)
	assert.Equal(t, 100.0, c.Padding)

	c = ComputeCrop(root, geometry.Box{Y: 600, H: 5000})
	assert.Equal(t, -50.0, c.TranslateY)
	assert.Equal(t, 50.0, c.Padding)
}

func TestComputeCrop_RelativeToRootOrigin(t *testing.T) {
	root := geometry.Box{X: 20, Y: 500, W: 800, H: 1600}
	c := ComputeCrop(root, geometry.Box{X: 20, Y: 900, W: 800, H: 400})
	assert.Equal(t, -25.0, c.TranslateY)
	assert.Equal(t, 50.0, c.Padding)
}

func TestComputeCrop_DeterministicAndInRange(t *testing.T) {
	roots := []geometry.Box{
		{W: 1000, H: 2000},
		{X: 10, Y: 40, W: 375, H: 812},
		{W: 1, H: 1},
		{Y: -300, W: 1920, H: 10000},
	}
	for _, root := range roots {
		for _, fy := range []float64{0, 0.1, 0.33, 0.5, 0.99} {
			for _, fh := range []float64{0, 0.01, 0.25, 1, 3} {
				sel := geometry.Box{X: root.X, Y: root.Y + fy*root.H, W: root.W, H: fh * root.H}
				a := ComputeCrop(root, sel)
				b := ComputeCrop(root, sel)
				assert.Equal(t, a, b)
				assert.Greater(t, a.TranslateY, -100.0, "root=%v sel=%v", root, sel)
				assert.LessOrEqual(t, a.TranslateY, 0.0, "root=%v sel=%v", root, sel)
				assert.GreaterOrEqual(t, a.Padding, 0.0, "root=%v sel=%v", root, sel)
			}
		}
	}
}

func TestComputeCrop_SelectionAtRootBottomStaysAboveMinus100(t *testing.T) {
	root := geometry.Box{W: 1000, H: 2000}
	for _, sel := range []geometry.Box{
		{Y: 2000, H: 100},
		{Y: 1999.99999, H: 100},
		{Y: 5000, H: 10},
	} {
		c := ComputeCrop(root, sel)
		assert.Greater(t, c.TranslateY, -100.0, "sel=%v", sel)
		assert.Equal(t, -99.9999, c.TranslateY, "sel=%v", sel)
		assert.Equal(t, 0.0, c.Padding, "sel=%v", sel)
	}
}
