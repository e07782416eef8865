package rastertile

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	// Half the side of the Web Mercator square, in meters.
	webMercatorMax = 20037508.342789244

	// Equatorial circumference of the WGS84 ellipsoid, in meters.
	earthCircumference = 40075016.68557849

	earthRadius = 6378137.0

	// Standardized rendering pixel size from the OGC WMTS spec, in meters.
	ogcPixelSize = 0.00028

	// Latitude limit of the Web Mercator projection.
	maxLatitude = 85.0511287798066

	metersPerInch = 0.0254
)

// TileAt returns the tile containing the given longitude/latitude at the
// given zoom level. Latitudes beyond the Web Mercator limit are clamped.
func TileAt(lon, lat float64, zoom int) Tile {
	lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
	t := maptile.At(orb.Point{lon, lat}, maptile.Zoom(zoom))
	n := 1 << zoom
	return Tile{
		Z: zoom,
		X: clampInt(int(t.X), 0, n-1),
		Y: clampInt(int(t.Y), 0, n-1),
	}
}

// TileRange returns the top-left and bottom-right tiles covering extent at
// the given zoom level.
func TileRange(extent Extent, zoom int) (topLeft, bottomRight Tile, err error) {
	if !extent.valid() {
		return Tile{}, Tile{}, fmt.Errorf("invalid extent: %+v", extent)
	}
	topLeft = TileAt(extent.MinX, extent.MaxY, zoom)
	bottomRight = TileAt(extent.MaxX, extent.MinY, zoom)
	return topLeft, bottomRight, nil
}

// TileExtent3857 returns the bounds of t in Web Mercator (EPSG:3857) meters.
func TileExtent3857(t Tile) Extent {
	tileSpan := 2 * webMercatorMax / float64(int(1)<<t.Z)
	minX := -webMercatorMax + float64(t.X)*tileSpan
	maxY := webMercatorMax - float64(t.Y)*tileSpan
	return Extent{
		MinX: minX,
		MaxX: minX + tileSpan,
		MinY: maxY - tileSpan,
		MaxY: maxY,
	}
}

// ScaleDenominator returns the cartographic scale denominator (the N of 1:N)
// for rendering extent into an image of the given pixel size at the given
// DPI. The degree-to-meter conversion uses the great-circle degree length at
// the extent's mean latitude.
func ScaleDenominator(extent Extent, imageWidth, imageHeight int, dpi float64) float64 {
	spanDegrees := math.Max(extent.MaxX-extent.MinX, extent.MaxY-extent.MinY)
	meanLat := (extent.MinY + extent.MaxY) / 2
	metersPerDegree := math.Pi / 180 * earthRadius * math.Cos(meanLat*math.Pi/180)
	imageInches := float64(max(imageWidth, imageHeight)) / dpi
	return spanDegrees * metersPerDegree / metersPerInch / imageInches
}

// ZoomForScale returns the Web Mercator zoom level whose tiles best match the
// given scale denominator, using the OGC standardized 0.28mm pixel.
// metersPerUnit is the linear unit of the target projection (1 for meters).
func ZoomForScale(scaleDenominator, metersPerUnit, dpi float64, tileWidth, tileHeight int) int {
	pixelSpan := scaleDenominator * ogcPixelSize / metersPerUnit / (dpi / 96)
	tileSpanX := float64(tileWidth) * pixelSpan
	tileSpanY := float64(tileHeight) * pixelSpan
	return int(math.Log2(earthCircumference / math.Max(tileSpanX, tileSpanY)))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
