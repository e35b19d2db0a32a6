package rastergrid

import (
	"fmt"
	"math"
)

// gridTolerance is the tolerance, as a fraction of a cell, used when checking
// that an extent is a whole number of cells and when comparing grids.
const gridTolerance = 1e-6

// An Extent is a bounding box in CRS units.
type Extent struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// A Resolution is a cell size in CRS units.
type Resolution struct {
	X float64
	Y float64
}

// A Grid describes the geometry of a raster. Row 0 is the northernmost row and
// column 0 the westernmost column. Grids are values and are never modified in
// place.
type Grid struct {
	crs        CRS
	extent     Extent
	resolution Resolution
	ncols      int
	nrows      int
}

// Width returns the width of e.
func (e Extent) Width() float64 { return e.XMax - e.XMin }

// Height returns the height of e.
func (e Extent) Height() float64 { return e.YMax - e.YMin }

// Contains returns whether (x, y) lies inside e. The west and north edges are
// inclusive, the east and south edges exclusive.
func (e Extent) Contains(x, y float64) bool {
	return e.XMin <= x && x < e.XMax && e.YMin < y && y <= e.YMax
}

// Intersect returns the intersection of e and other and whether it is
// non-empty.
func (e Extent) Intersect(other Extent) (Extent, bool) {
	result := Extent{
		XMin: max(e.XMin, other.XMin),
		XMax: min(e.XMax, other.XMax),
		YMin: max(e.YMin, other.YMin),
		YMax: min(e.YMax, other.YMax),
	}
	if result.XMin >= result.XMax || result.YMin >= result.YMax {
		return Extent{}, false
	}
	return result, true
}

func (e Extent) valid() bool {
	for _, v := range []float64{e.XMin, e.XMax, e.YMin, e.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return e.XMin < e.XMax && e.YMin < e.YMax
}

// NewGrid returns a new Grid with the given extent and resolution. The extent
// must be a whole number of cells in each direction.
func NewGrid(crs CRS, extent Extent, resolution Resolution) (Grid, error) {
	if !extent.valid() {
		return Grid{}, fmt.Errorf("%w: extent %v", ErrInvalidGrid, extent)
	}
	if !(resolution.X > 0) || !(resolution.Y > 0) || math.IsInf(resolution.X, 0) || math.IsInf(resolution.Y, 0) {
		return Grid{}, fmt.Errorf("%w: resolution %v", ErrInvalidGrid, resolution)
	}
	ncols, ok := wholeCells(extent.Width(), resolution.X)
	if !ok {
		return Grid{}, fmt.Errorf("%w: width %g is not a multiple of %g", ErrInvalidGrid, extent.Width(), resolution.X)
	}
	nrows, ok := wholeCells(extent.Height(), resolution.Y)
	if !ok {
		return Grid{}, fmt.Errorf("%w: height %g is not a multiple of %g", ErrInvalidGrid, extent.Height(), resolution.Y)
	}
	return Grid{
		crs:        crs.Normalize(),
		extent:     extent,
		resolution: resolution,
		ncols:      ncols,
		nrows:      nrows,
	}, nil
}

// NewGridFromSize returns a new Grid covering extent with ncols columns and
// nrows rows.
func NewGridFromSize(crs CRS, extent Extent, ncols, nrows int) (Grid, error) {
	if ncols <= 0 || nrows <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d cells", ErrInvalidGrid, ncols, nrows)
	}
	if !extent.valid() {
		return Grid{}, fmt.Errorf("%w: extent %v", ErrInvalidGrid, extent)
	}
	return Grid{
		crs:    crs.Normalize(),
		extent: extent,
		resolution: Resolution{
			X: extent.Width() / float64(ncols),
			Y: extent.Height() / float64(nrows),
		},
		ncols: ncols,
		nrows: nrows,
	}, nil
}

// NewGridFromGeoTransform returns a new north-up Grid from a GDAL-style
// geotransform.
func NewGridFromGeoTransform(crs CRS, geoTransform [6]float64, ncols, nrows int) (Grid, error) {
	if geoTransform[2] != 0 || geoTransform[4] != 0 || geoTransform[1] <= 0 || geoTransform[5] >= 0 {
		return Grid{}, fmt.Errorf("%w: geotransform %v is not north-up", ErrInvalidGrid, geoTransform)
	}
	extent := Extent{
		XMin: geoTransform[0],
		XMax: geoTransform[0] + float64(ncols)*geoTransform[1],
		YMin: geoTransform[3] + float64(nrows)*geoTransform[5],
		YMax: geoTransform[3],
	}
	return NewGridFromSize(crs, extent, ncols, nrows)
}

// wholeCells returns length/size rounded to the nearest integer and whether
// the rounding error is within gridTolerance cells.
func wholeCells(length, size float64) (int, bool) {
	n := length / size
	rounded := math.Round(n)
	if rounded < 1 || math.Abs(n-rounded) > gridTolerance {
		return 0, false
	}
	return int(rounded), true
}

func (g Grid) CRS() CRS               { return g.crs }
func (g Grid) Extent() Extent         { return g.extent }
func (g Grid) Resolution() Resolution { return g.resolution }
func (g Grid) NCols() int             { return g.ncols }
func (g Grid) NRows() int             { return g.nrows }
func (g Grid) NCells() int            { return g.ncols * g.nrows }

// Origin returns the top-left corner of g.
func (g Grid) Origin() (float64, float64) {
	return g.extent.XMin, g.extent.YMax
}

// WithCRS returns a copy of g with its CRS set to crs.
func (g Grid) WithCRS(crs CRS) Grid {
	g.crs = crs.Normalize()
	return g
}

// GeoTransform returns g's GDAL-style geotransform.
func (g Grid) GeoTransform() [6]float64 {
	return [6]float64{g.extent.XMin, g.resolution.X, 0, g.extent.YMax, 0, -g.resolution.Y}
}

// CellCenter returns the coordinate of the center of the cell at col, row.
func (g Grid) CellCenter(col, row int) (float64, float64) {
	x := g.extent.XMin + (float64(col)+0.5)*g.resolution.X
	y := g.extent.YMax - (float64(row)+0.5)*g.resolution.Y
	return x, y
}

// Cell returns the column and row of the cell containing (x, y).
func (g Grid) Cell(x, y float64) (int, int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, false
	}
	col := int(math.Floor((x - g.extent.XMin) / g.resolution.X))
	row := int(math.Floor((g.extent.YMax - y) / g.resolution.Y))
	if col < 0 || g.ncols <= col || row < 0 || g.nrows <= row {
		return 0, 0, false
	}
	return col, row, true
}

// index returns the row-major index of col, row.
func (g Grid) index(col, row int) int {
	return row*g.ncols + col
}

// Aligned returns whether g and other share CRS, extent and resolution.
func (g Grid) Aligned(other Grid) bool {
	if !g.crs.Equal(other.crs) || g.ncols != other.ncols || g.nrows != other.nrows {
		return false
	}
	tolX := gridTolerance * g.resolution.X
	tolY := gridTolerance * g.resolution.Y
	return math.Abs(g.extent.XMin-other.extent.XMin) <= tolX &&
		math.Abs(g.extent.XMax-other.extent.XMax) <= tolX &&
		math.Abs(g.extent.YMin-other.extent.YMin) <= tolY &&
		math.Abs(g.extent.YMax-other.extent.YMax) <= tolY
}

// checkAligned returns an error wrapping ErrGridMismatch if g and other are
// not aligned.
func (g Grid) checkAligned(other Grid) error {
	switch {
	case !g.crs.Equal(other.crs):
		return fmt.Errorf("%w: CRS %q != %q", ErrGridMismatch, g.crs, other.crs)
	case !g.Aligned(other):
		return fmt.Errorf("%w: %dx%d %v != %dx%d %v", ErrGridMismatch, g.ncols, g.nrows, g.extent, other.ncols, other.nrows, other.extent)
	default:
		return nil
	}
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d cells, resolution %gx%g, extent [%g %g %g %g], CRS %q",
		g.ncols, g.nrows, g.resolution.X, g.resolution.Y,
		g.extent.XMin, g.extent.XMax, g.extent.YMin, g.extent.YMax, g.crs)
}
