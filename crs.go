package rastertile

import (
	"math"

	"github.com/twpayne/go-proj/v10"
)

const crsWGS84 = "epsg:4326"

// ProjectedExtent projects extent from sourceCRS to Web Mercator
// (EPSG:3857). An empty sourceCRS means EPSG:4326. The edges of the box are
// densified before projection so that extents whose edges curve under the
// projection are still bounded correctly.
func ProjectedExtent(extent Extent, sourceCRS string) (Extent, error) {
	if sourceCRS == "" {
		sourceCRS = crsWGS84
	}
	pj, err := proj.NewCRSToCRS(sourceCRS, "epsg:3857", nil)
	if err != nil {
		return Extent{}, err
	}

	coords := densifyBoundary(extent, 16)
	// PROJ uses latitude/longitude axis order for EPSG:4326.
	if sourceCRS == crsWGS84 {
		flipCoords(coords)
	}
	if err := pj.ForwardFloat64Slices(coords); err != nil {
		return Extent{}, err
	}

	projected := Extent{
		MinX: math.Inf(1),
		MaxX: math.Inf(-1),
		MinY: math.Inf(1),
		MaxY: math.Inf(-1),
	}
	for _, coord := range coords {
		projected.MinX = math.Min(projected.MinX, coord[0])
		projected.MaxX = math.Max(projected.MaxX, coord[0])
		projected.MinY = math.Min(projected.MinY, coord[1])
		projected.MaxY = math.Max(projected.MaxY, coord[1])
	}
	return projected, nil
}

// densifyBoundary returns steps points per edge along the boundary of extent.
func densifyBoundary(extent Extent, steps int) [][]float64 {
	coordsFlat := make([]float64, 2*4*steps)
	coords := make([][]float64, 4*steps)
	for i := range coords {
		coords[i] = coordsFlat[2*i : 2*i+2]
	}
	for i := 0; i < steps; i++ {
		f := float64(i) / float64(steps)
		x := extent.MinX + f*(extent.MaxX-extent.MinX)
		y := extent.MinY + f*(extent.MaxY-extent.MinY)
		coords[i][0], coords[i][1] = x, extent.MinY
		coords[steps+i][0], coords[steps+i][1] = extent.MaxX, y
		coords[2*steps+i][0], coords[2*steps+i][1] = extent.MaxX-(x-extent.MinX), extent.MaxY
		coords[3*steps+i][0], coords[3*steps+i][1] = extent.MinX, extent.MaxY-(y-extent.MinY)
	}
	return coords
}

func flipCoords(coords [][]float64) {
	for i, coord := range coords {
		coords[i][0], coords[i][1] = coord[1], coord[0]
	}
}
