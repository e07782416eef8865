package rastertile_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	rastertile "github.com/twpayne/go-rastertile"
)

func assertInDelta(t *testing.T, expected, actual, delta float64) {
	t.Helper()
	if math.Abs(expected-actual) > delta {
		t.Fatalf("expected %v to be within %v of %v", actual, delta, expected)
	}
}

func TestTileAt(t *testing.T) {
	for _, tc := range []struct {
		name     string
		lon      float64
		lat      float64
		zoom     int
		expected rastertile.Tile
	}{
		{
			name:     "origin_zoom_zero",
			expected: rastertile.Tile{Z: 0, X: 0, Y: 0},
		},
		{
			name:     "san_francisco",
			lon:      -122.5,
			lat:      37.8,
			zoom:     10,
			expected: rastertile.Tile{Z: 10, X: 163, Y: 395},
		},
		{
			name:     "northwest_corner",
			lon:      -180,
			lat:      85.0511287798066,
			zoom:     4,
			expected: rastertile.Tile{Z: 4, X: 0, Y: 0},
		},
		{
			name:     "north_pole_clamped",
			lat:      90,
			zoom:     4,
			expected: rastertile.Tile{Z: 4, X: 8, Y: 0},
		},
		{
			name:     "south_pole_clamped",
			lat:      -90,
			zoom:     4,
			expected: rastertile.Tile{Z: 4, X: 8, Y: 15},
		},
		{
			name:     "antimeridian_clamped",
			lon:      180,
			zoom:     4,
			expected: rastertile.Tile{Z: 4, X: 15, Y: 8},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, rastertile.TileAt(tc.lon, tc.lat, tc.zoom))
		})
	}
}

func TestTileRange(t *testing.T) {
	extent := rastertile.Extent{MinX: -122.5, MaxX: -122.3, MinY: 37.7, MaxY: 37.8}
	topLeft, bottomRight, err := rastertile.TileRange(extent, 12)
	assert.NoError(t, err)
	assert.Equal(t, rastertile.Tile{Z: 12, X: 654, Y: 1582}, topLeft)
	assert.Equal(t, rastertile.Tile{Z: 12, X: 656, Y: 1584}, bottomRight)
}

func TestTileRangeInvalidExtent(t *testing.T) {
	_, _, err := rastertile.TileRange(rastertile.Extent{MinX: 10, MaxX: -10}, 4)
	assert.Error(t, err)
}

func TestTileExtent3857(t *testing.T) {
	const worldMax = 20037508.342789244

	world := rastertile.TileExtent3857(rastertile.Tile{Z: 0, X: 0, Y: 0})
	assertInDelta(t, -worldMax, world.MinX, 1e-6)
	assertInDelta(t, worldMax, world.MaxX, 1e-6)
	assertInDelta(t, -worldMax, world.MinY, 1e-6)
	assertInDelta(t, worldMax, world.MaxY, 1e-6)

	northEast := rastertile.TileExtent3857(rastertile.Tile{Z: 1, X: 1, Y: 0})
	assertInDelta(t, 0, northEast.MinX, 1e-6)
	assertInDelta(t, worldMax, northEast.MaxX, 1e-6)
	assertInDelta(t, 0, northEast.MinY, 1e-6)
	assertInDelta(t, worldMax, northEast.MaxY, 1e-6)
}

func TestZoomForScale(t *testing.T) {
	const earthCircumference = 40075016.68557849
	for zoom := 0; zoom <= 18; zoom++ {
		// The scale denominator at which one tile spans exactly
		// earthCircumference / 2^zoom meters, nudged down to stay clear
		// of the floor boundary.
		scale := earthCircumference / float64(int(256)<<zoom) / 0.00028 * 0.999
		assert.Equal(t, zoom, rastertile.ZoomForScale(scale, 1, 96, 256, 256))
	}
}

func TestZoomForScaleDPI(t *testing.T) {
	// Doubling the DPI halves the pixel span, which doubles the
	// tiles needed per meter of scale.
	scale := 1e6
	lowDPI := rastertile.ZoomForScale(scale, 1, 96, 256, 256)
	highDPI := rastertile.ZoomForScale(scale, 1, 192, 256, 256)
	assert.Equal(t, lowDPI+1, highDPI)
}

func TestScaleDenominator(t *testing.T) {
	// One degree at the equator rendered into one inch of image.
	extent := rastertile.Extent{MinX: 0, MaxX: 1, MinY: -0.5, MaxY: 0.5}
	scale := rastertile.ScaleDenominator(extent, 96, 96, 96)
	assertInDelta(t, 4382657.118, scale, 1)

	// Doubling the extent doubles the denominator.
	doubled := rastertile.Extent{MinX: 0, MaxX: 2, MinY: -0.5, MaxY: 0.5}
	assertInDelta(t, 2*scale, rastertile.ScaleDenominator(doubled, 96, 96, 96), 1)
}
