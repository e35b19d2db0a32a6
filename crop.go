package rastergrid

import (
	"fmt"
	"math"
)

// Crop returns the part of r that overlaps extent. The extent is snapped to
// the nearest cell boundaries of r so the result stays aligned with r.
func Crop(r *Raster, extent Extent) (*Raster, error) {
	overlap, ok := r.grid.extent.Intersect(extent)
	if !ok {
		return nil, fmt.Errorf("%w: %v and %v", ErrNoOverlap, r.grid.extent, extent)
	}

	res := r.grid.resolution
	col0 := int(math.Round((overlap.XMin - r.grid.extent.XMin) / res.X))
	col1 := int(math.Round((overlap.XMax - r.grid.extent.XMin) / res.X))
	row0 := int(math.Round((r.grid.extent.YMax - overlap.YMax) / res.Y))
	row1 := int(math.Round((r.grid.extent.YMax - overlap.YMin) / res.Y))
	col1 = min(max(col1, col0+1), r.grid.ncols)
	row1 = min(max(row1, row0+1), r.grid.nrows)
	col0 = min(col0, col1-1)
	row0 = min(row0, row1-1)

	return r.window(col0, row0, col1, row1), nil
}

// CropTo returns the part of r that overlaps template's extent.
func CropTo(r *Raster, template Grid) (*Raster, error) {
	if !r.grid.crs.IsZero() && !template.crs.IsZero() && !r.grid.crs.Equal(template.crs) {
		return nil, fmt.Errorf("%w: CRS %q != %q", ErrGridMismatch, r.grid.crs, template.crs)
	}
	return Crop(r, template.extent)
}

// Trim returns the smallest raster containing all of r's data cells by
// removing outer rows and columns that hold only NoData.
func Trim(r *Raster) (*Raster, error) {
	col0, row0 := r.grid.ncols, r.grid.nrows
	col1, row1 := -1, -1
	for row := range r.grid.nrows {
		for col := range r.grid.ncols {
			if IsNoData(r.cells[r.grid.index(col, row)]) {
				continue
			}
			col0 = min(col0, col)
			col1 = max(col1, col)
			row0 = min(row0, row)
			row1 = max(row1, row)
		}
	}
	if col1 < 0 {
		return nil, ErrNoData
	}
	return r.window(col0, row0, col1+1, row1+1), nil
}

// window returns the cells of r in columns [col0, col1) and rows [row0,
// row1).
func (r *Raster) window(col0, row0, col1, row1 int) *Raster {
	res := r.grid.resolution
	grid := Grid{
		crs: r.grid.crs,
		extent: Extent{
			XMin: r.grid.extent.XMin + float64(col0)*res.X,
			XMax: r.grid.extent.XMin + float64(col1)*res.X,
			YMin: r.grid.extent.YMax - float64(row1)*res.Y,
			YMax: r.grid.extent.YMax - float64(row0)*res.Y,
		},
		resolution: res,
		ncols:      col1 - col0,
		nrows:      row1 - row0,
	}
	cells := make([]float64, 0, grid.NCells())
	for row := row0; row < row1; row++ {
		cells = append(cells, r.cells[r.grid.index(col0, row):r.grid.index(col1, row)]...)
	}
	return newWithCells(grid, cells)
}
