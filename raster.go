package rastergrid

import (
	"fmt"
	"math"
	"slices"
)

// NoData is the value of cells that hold no data.
var NoData = math.NaN()

// IsNoData returns whether v is the no-data value.
func IsNoData(v float64) bool {
	return math.IsNaN(v)
}

// A Raster is a Grid together with its cell values in row-major order. A
// Raster is never modified in place; operations return new Rasters.
type Raster struct {
	grid  Grid
	cells []float64
}

// A Point is a coordinate and a value.
type Point struct {
	X     float64
	Y     float64
	Value float64
}

// A Summary summarizes the data cells of a raster.
type Summary struct {
	Cells     int
	DataCells int
	Min       float64
	Max       float64
	Mean      float64
}

// New returns a new Raster on grid with every cell set to NoData.
func New(grid Grid) *Raster {
	return Fill(grid, NoData)
}

// Fill returns a new Raster on grid with every cell set to value.
func Fill(grid Grid, value float64) *Raster {
	cells := make([]float64, grid.NCells())
	for i := range cells {
		cells[i] = value
	}
	return &Raster{
		grid:  grid,
		cells: cells,
	}
}

// NewFromCells returns a new Raster on grid with cells assigned in row-major
// order. cells is copied.
func NewFromCells(grid Grid, cells []float64) (*Raster, error) {
	if len(cells) != grid.NCells() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCellCount, len(cells), grid.NCells())
	}
	return &Raster{
		grid:  grid,
		cells: slices.Clone(cells),
	}, nil
}

// newWithCells returns a new Raster that takes ownership of cells.
func newWithCells(grid Grid, cells []float64) *Raster {
	return &Raster{
		grid:  grid,
		cells: cells,
	}
}

// Grid returns r's grid.
func (r *Raster) Grid() Grid {
	return r.grid
}

// CRS returns r's CRS.
func (r *Raster) CRS() CRS {
	return r.grid.crs
}

// WithCRS returns a copy of r with its CRS set to crs.
func (r *Raster) WithCRS(crs CRS) *Raster {
	return newWithCells(r.grid.WithCRS(crs), slices.Clone(r.cells))
}

// Cells returns a copy of r's cells in row-major order.
func (r *Raster) Cells() []float64 {
	return slices.Clone(r.cells)
}

// At returns the value of the cell at col, row.
func (r *Raster) At(col, row int) float64 {
	if col < 0 || r.grid.ncols <= col || row < 0 || r.grid.nrows <= row {
		return NoData
	}
	return r.cells[r.grid.index(col, row)]
}

// Value returns the value of the cell containing (x, y). It returns false if
// (x, y) is outside r.
func (r *Raster) Value(x, y float64) (float64, bool) {
	col, row, ok := r.grid.Cell(x, y)
	if !ok {
		return NoData, false
	}
	return r.cells[r.grid.index(col, row)], true
}

// Points returns one Point per cell, at the cell's center, in row-major
// order. No-data cells are included with a NaN value.
func (r *Raster) Points() []Point {
	points := make([]Point, 0, len(r.cells))
	for row := range r.grid.nrows {
		for col := range r.grid.ncols {
			x, y := r.grid.CellCenter(col, row)
			points = append(points, Point{
				X:     x,
				Y:     y,
				Value: r.cells[r.grid.index(col, row)],
			})
		}
	}
	return points
}

// DataCount returns the number of cells that hold data.
func (r *Raster) DataCount() int {
	n := 0
	for _, v := range r.cells {
		if !IsNoData(v) {
			n++
		}
	}
	return n
}

// Summary returns a summary of r's data cells. Min, Max, and Mean are NaN if
// r has no data cells.
func (r *Raster) Summary() Summary {
	summary := Summary{
		Cells: len(r.cells),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	sum := 0.0
	for _, v := range r.cells {
		if IsNoData(v) {
			continue
		}
		summary.DataCells++
		summary.Min = min(summary.Min, v)
		summary.Max = max(summary.Max, v)
		sum += v
	}
	if summary.DataCells == 0 {
		summary.Min, summary.Max, summary.Mean = NoData, NoData, NoData
		return summary
	}
	summary.Mean = sum / float64(summary.DataCells)
	return summary
}

// Equal returns whether r and other have aligned grids and identical cells.
// No-data cells compare equal to each other.
func (r *Raster) Equal(other *Raster) bool {
	if !r.grid.Aligned(other.grid) {
		return false
	}
	return slices.EqualFunc(r.cells, other.cells, func(a, b float64) bool {
		if IsNoData(a) || IsNoData(b) {
			return IsNoData(a) && IsNoData(b)
		}
		return a == b
	})
}
