package rastertile

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// A ResampleMethod selects the filter used when scaling composite images.
type ResampleMethod string

const (
	ResampleNearest        ResampleMethod = "nearest"
	ResampleApproxBilinear ResampleMethod = "approx-bilinear"
	ResampleBilinear       ResampleMethod = "bilinear"
	ResampleCatmullRom     ResampleMethod = "catmullrom"
)

func (m ResampleMethod) scaler() xdraw.Scaler {
	switch m {
	case ResampleNearest:
		return xdraw.NearestNeighbor
	case ResampleApproxBilinear:
		return xdraw.ApproxBiLinear
	case ResampleBilinear:
		return xdraw.BiLinear
	default:
		return xdraw.CatmullRom
	}
}

// CombineTiles assembles a row-major grid of equally sized tiles into a
// single image. An empty grid yields a transparent image of one tile.
func CombineTiles(tiles [][]image.Image, tileSize int) *image.NRGBA {
	rows := len(tiles)
	cols := 0
	if rows > 0 {
		cols = len(tiles[0])
	}
	if rows == 0 || cols == 0 {
		return image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize))
	}

	combined := image.NewNRGBA(image.Rect(0, 0, cols*tileSize, rows*tileSize))
	for row := range tiles {
		for col, tile := range tiles[row] {
			if tile == nil {
				continue
			}
			target := image.Rect(col*tileSize, row*tileSize, (col+1)*tileSize, (row+1)*tileSize)
			draw.Draw(combined, target, tile, tile.Bounds().Min, draw.Src)
		}
	}
	return combined
}

func resize(img image.Image, width, height int, scaler xdraw.Scaler) *image.NRGBA {
	resized := image.NewNRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(resized, resized.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return resized
}

func blankTile(tileSize int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize))
}

// blackToTransparent replaces fully black pixels with transparent ones. Used
// for overlay tile sets that encode "nothing here" as black.
func blackToTransparent(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	result := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)
	for y := 0; y < result.Rect.Dy(); y++ {
		for x := 0; x < result.Rect.Dx(); x++ {
			c := result.NRGBAAt(x, y)
			if c.R == 0 && c.G == 0 && c.B == 0 {
				result.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	return result
}
