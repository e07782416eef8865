package rastertile

import (
	"context"
	"image"
)

// A TileSource yields one composed image per tile together with the tile's
// Web Mercator bounds, for use with map-tiling renderer interfaces. When
// supersampling is enabled each tile is assembled from the block of subtiles
// one or more zoom levels deeper and downsampled to the provider's tile size.
type TileSource struct {
	server         *Server
	supersample    int
	resampleMethod ResampleMethod
}

// Source returns a TileSource for s. Only the WithSupersample and
// WithResampleMethod options apply.
func (s *Server) Source(options ...ExtentOption) *TileSource {
	config := extentConfig{
		resampleMethod: ResampleCatmullRom,
	}
	for _, option := range options {
		option(&config)
	}
	return &TileSource{
		server:         s,
		supersample:    config.supersample,
		resampleMethod: config.resampleMethod,
	}
}

// supersampleFor returns the usable supersample level for a tile at zoom,
// respecting the provider's maximum zoom.
func (ts *TileSource) supersampleFor(zoom int) int {
	supersample := ts.supersample
	if zoom+supersample > ts.server.provider.MaxZoom {
		supersample = ts.server.provider.MaxZoom - zoom
	}
	return max(0, supersample)
}

// TileURL returns the URL fetched for t, accounting for supersampling.
func (ts *TileSource) TileURL(t Tile) string {
	supersample := ts.supersampleFor(t.Z)
	return ts.server.TileURL(Tile{
		Z: t.Z + supersample,
		X: t.X << supersample,
		Y: t.Y << supersample,
	})
}

// TileImage returns the image for t and t's bounds in Web Mercator meters.
// With supersampling, subtiles that fail to fetch are rendered transparent;
// without, fetch errors are returned.
func (ts *TileSource) TileImage(ctx context.Context, t Tile) (image.Image, Extent, error) {
	extent := TileExtent3857(t)

	supersample := ts.supersampleFor(t.Z)
	if supersample == 0 {
		img, err := ts.server.FetchTile(ctx, t)
		if err != nil {
			return nil, Extent{}, err
		}
		return img, extent, nil
	}

	scale := 1 << supersample
	tileSize := ts.server.provider.TileSize
	tiles := make([][]image.Image, scale)
	for dy := range tiles {
		tiles[dy] = make([]image.Image, scale)
		for dx := range tiles[dy] {
			subtile := Tile{
				Z: t.Z + supersample,
				X: t.X*scale + dx,
				Y: t.Y*scale + dy,
			}
			img, err := ts.server.FetchTile(ctx, subtile)
			if err != nil {
				img = blankTile(tileSize)
			}
			tiles[dy][dx] = img
		}
	}

	actualTileSize := tileSize
	if tiles[0][0] != nil {
		actualTileSize = tiles[0][0].Bounds().Dx()
	}
	combined := CombineTiles(tiles, actualTileSize)
	return resize(combined, tileSize, tileSize, ts.resampleMethod.scaler()), extent, nil
}
