package rastertile

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func uniformTile(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestCombineTiles(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	combined := CombineTiles([][]image.Image{
		{uniformTile(4, red), uniformTile(4, green)},
		{uniformTile(4, blue), uniformTile(4, white)},
	}, 4)

	assert.Equal(t, image.Rect(0, 0, 8, 8), combined.Rect)
	assert.Equal(t, red, combined.NRGBAAt(1, 1))
	assert.Equal(t, green, combined.NRGBAAt(5, 1))
	assert.Equal(t, blue, combined.NRGBAAt(1, 5))
	assert.Equal(t, white, combined.NRGBAAt(5, 5))
}

func TestCombineTilesNil(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	combined := CombineTiles([][]image.Image{
		{uniformTile(4, red), nil},
	}, 4)
	assert.Equal(t, image.Rect(0, 0, 8, 4), combined.Rect)
	assert.Equal(t, red, combined.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{}, combined.NRGBAAt(5, 1))
}

func TestCombineTilesEmpty(t *testing.T) {
	combined := CombineTiles(nil, 256)
	assert.Equal(t, image.Rect(0, 0, 256, 256), combined.Rect)
	assert.Equal(t, color.NRGBA{}, combined.NRGBAAt(128, 128))
}

func TestBlackToTransparent(t *testing.T) {
	img := uniformTile(4, color.NRGBA{A: 255})
	img.SetNRGBA(2, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	result := blackToTransparent(img)
	assert.Equal(t, color.NRGBA{}, result.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, result.NRGBAAt(2, 2))
}

func TestResize(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	img := uniformTile(8, red)
	for _, method := range []ResampleMethod{
		ResampleNearest,
		ResampleApproxBilinear,
		ResampleBilinear,
		ResampleCatmullRom,
		ResampleMethod("unknown"),
	} {
		resized := resize(img, 4, 4, method.scaler())
		assert.Equal(t, image.Rect(0, 0, 4, 4), resized.Rect)
		assert.Equal(t, red, resized.NRGBAAt(2, 2))
	}
}
