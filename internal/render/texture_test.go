package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "texture.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, img))
	return path
}

func TestDecodeRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	rgba, err := decodeRGBA(writeTestPNG(t, src))
	require.NoError(t, err)

	assert.Equal(t, 4, rgba.Rect.Dx())
	assert.Equal(t, 2, rgba.Rect.Dy())
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, rgba.RGBAAt(1, 1))
}

func TestDecodeRGBAConvertsPalettedImages(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{
		color.RGBA{A: 255},
		color.RGBA{R: 255, A: 255},
	})
	src.SetColorIndex(3, 3, 1)

	rgba, err := decodeRGBA(writeTestPNG(t, src))
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba.RGBAAt(3, 3))
	assert.Len(t, rgba.Pix, 8*8*4)
}

func TestDecodeRGBAMissingFile(t *testing.T) {
	_, err := decodeRGBA("testdata/does-not-exist.png")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAsset)
}

func TestDecodeRGBAMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	_, err := decodeRGBA(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAsset)
}
