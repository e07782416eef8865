package rastertile_test

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	rastertile "github.com/twpayne/go-rastertile"
)

func TestTileSourceTileImage(t *testing.T) {
	handler, requests := newTileHandler(t, 256, color.NRGBA{R: 255, A: 255})
	server := httptest.NewServer(handler)
	defer server.Close()

	s, err := rastertile.NewWithProvider(testProvider(server.URL))
	assert.NoError(t, err)

	tile := rastertile.Tile{Z: 10, X: 163, Y: 395}
	img, extent, err := s.Source().TileImage(context.Background(), tile)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
	assert.Equal(t, rastertile.TileExtent3857(tile), extent)
	assert.Equal(t, int64(1), requests.Load())
}

func TestTileSourceTileImageSupersample(t *testing.T) {
	handler, requests := newTileHandler(t, 256, color.NRGBA{G: 255, A: 255})
	server := httptest.NewServer(handler)
	defer server.Close()

	s, err := rastertile.NewWithProvider(testProvider(server.URL))
	assert.NoError(t, err)

	tile := rastertile.Tile{Z: 10, X: 163, Y: 395}
	img, extent, err := s.Source(rastertile.WithSupersample(1)).TileImage(context.Background(), tile)
	assert.NoError(t, err)
	// Four subtiles at zoom 11, downsampled back to one tile.
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
	assert.Equal(t, rastertile.TileExtent3857(tile), extent)
	assert.Equal(t, int64(4), requests.Load())
}

func TestTileSourceTileImageSupersampleClamped(t *testing.T) {
	handler, requests := newTileHandler(t, 256, color.NRGBA{B: 255, A: 255})
	server := httptest.NewServer(handler)
	defer server.Close()

	provider := testProvider(server.URL)
	provider.MaxZoom = 10
	s, err := rastertile.NewWithProvider(provider)
	assert.NoError(t, err)

	tile := rastertile.Tile{Z: 10, X: 163, Y: 395}
	img, _, err := s.Source(rastertile.WithSupersample(2)).TileImage(context.Background(), tile)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
	assert.Equal(t, int64(1), requests.Load())
}

func TestTileSourceTileImageSubtileFailure(t *testing.T) {
	handler, _ := newTileHandler(t, 256, color.NRGBA{R: 255, A: 255})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fail the bottom-right subtile of tile 10/163/395.
		if strings.HasSuffix(r.URL.Path, "/11/327/791.png") {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	defer server.Close()

	s, err := rastertile.NewWithProvider(testProvider(server.URL))
	assert.NoError(t, err)

	tile := rastertile.Tile{Z: 10, X: 163, Y: 395}
	img, _, err := s.Source(rastertile.WithSupersample(1)).TileImage(context.Background(), tile)
	assert.NoError(t, err)

	nrgba, ok := img.(*image.NRGBA)
	assert.True(t, ok)
	// The failed subtile's quadrant is transparent, the rest is not.
	assert.Equal(t, uint8(0), nrgba.NRGBAAt(192, 192).A)
	assert.Equal(t, uint8(255), nrgba.NRGBAAt(64, 64).A)
}

func TestTileSourceTileURL(t *testing.T) {
	s, err := rastertile.NewWithProvider(testProvider("http://localhost"))
	assert.NoError(t, err)

	tile := rastertile.Tile{Z: 10, X: 3, Y: 5}
	assert.Equal(t, "http://localhost/10/3/5.png", s.Source().TileURL(tile))
	assert.Equal(t, "http://localhost/12/12/20.png", s.Source(rastertile.WithSupersample(2)).TileURL(tile))
}
