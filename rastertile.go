// Package rastertile fetches raster map tiles from remote XYZ tile servers
// and assembles them into composite images covering geographic extents.
package rastertile

import "fmt"

// A Tile is a slippy-map tile address in the XYZ scheme, with the origin at
// the top-left of the Web Mercator square.
type Tile struct {
	Z int
	X int
	Y int
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// An Extent is a geographic bounding box in longitude/latitude degrees.
type Extent struct {
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
}

func (e Extent) valid() bool {
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY
}
