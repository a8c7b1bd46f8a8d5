package imagerender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pagecomposer/internal/library"
)

func TestRender_CropMarkup(t *testing.T) {
	img := library.MasterImage{URL: "https://cdn.example.com/s1.png", Width: 1000, Height: 2000}
	html, err := Render(Crop{TranslateY: -10, Padding: 30}, img, "Hero")
	require.NoError(t, err)

	assert.Contains(t, html, `data-render="crop"`)
	assert.Contains(t, html, `padding-top:30%`)
	assert.Contains(t, html, `transform:translateY(-10%)`)
	assert.Contains(t, html, `src="https://cdn.example.com/s1.png"`)
	assert.Contains(t, html, `width="1000" height="2000"`)
	assert.Contains(t, html, `data-section="Hero"`)
}

func TestRender_Deterministic(t *testing.T) {
	img := library.MasterImage{URL: "/assets/s1.png"}
	a, err := Render(Crop{TranslateY: -12.5, Padding: 42.1234}, img, "x")
	require.NoError(t, err)
	b, err := Render(Crop{TranslateY: -12.5, Padding: 42.1234}, img, "x")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "padding-top:42.1234%")
	assert.NotContains(t, a, "width=")
}

func TestRender_EscapesLabel(t *testing.T) {
	html, err := Render(Crop{}, library.MasterImage{URL: "https://a/b.png"}, `"><script>`)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRender_UnresolvableImage(t *testing.T) {
	for _, u := range []string{"", "   ", "javascript:alert(1)", "ftp://host/img.png", "http://[::1"} {
		_, err := Render(Crop{}, library.MasterImage{URL: u}, "x")
		assert.ErrorIs(t, err, ErrUnresolvableImage, "url %q", u)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "30", FormatPercent(30))
	assert.Equal(t, "-10", FormatPercent(-10))
	assert.Equal(t, "12.3456", FormatPercent(12.3456))
}

func TestCheckImage(t *testing.T) {
	assert.NoError(t, CheckImage(library.MasterImage{URL: "https://cdn.test/a.png"}))
	assert.NoError(t, CheckImage(library.MasterImage{URL: "/static/a.png"}))
	assert.ErrorIs(t, CheckImage(library.MasterImage{}), ErrUnresolvableImage)
	assert.ErrorIs(t, CheckImage(library.MasterImage{URL: "ftp://cdn.test/a.png"}), ErrUnresolvableImage)
}
