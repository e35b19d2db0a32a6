package rastergrid

import (
	"fmt"
	"math"
	"strings"
)

// A Resampling is a method for computing values at arbitrary coordinates.
type Resampling int

const (
	// Nearest takes the value of the cell containing the coordinate. Use it
	// for categorical data.
	Nearest Resampling = iota
	// Bilinear interpolates between the four nearest cell centers. Use it
	// for continuous data.
	Bilinear
)

// ParseResampling parses a resampling method name.
func ParseResampling(s string) (Resampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "near", "nearest", "ngb", "nearest-neighbor", "nearest_neighbour":
		return Nearest, nil
	case "bilinear":
		return Bilinear, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownResampling, s)
	}
}

func (m Resampling) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	default:
		return fmt.Sprintf("Resampling(%d)", int(m))
	}
}

// Resample returns a new Raster on target with values sampled from src using
// method. src and target must share a CRS; use Toolbox.Reproject otherwise.
func Resample(src *Raster, target Grid, method Resampling) (*Raster, error) {
	if !src.grid.crs.Equal(target.crs) {
		return nil, fmt.Errorf("%w: CRS %q != %q", ErrGridMismatch, src.grid.crs, target.crs)
	}
	return resampleAt(src, target, cellCenters(target), method)
}

// cellCenters returns the coordinates of the centers of every cell of g in
// row-major order.
func cellCenters(g Grid) [][]float64 {
	flat := make([]float64, 2*g.NCells())
	coords := make([][]float64, g.NCells())
	for row := range g.nrows {
		for col := range g.ncols {
			i := g.index(col, row)
			flat[2*i], flat[2*i+1] = g.CellCenter(col, row)
			coords[i] = flat[2*i : 2*i+2]
		}
	}
	return coords
}

// resampleAt returns a new Raster on target whose i-th cell is sampled from src
// at coords[i], which are in src's CRS.
func resampleAt(src *Raster, target Grid, coords [][]float64, method Resampling) (*Raster, error) {
	if len(coords) != target.NCells() {
		return nil, fmt.Errorf("%w: got %d coordinates, want %d", ErrCellCount, len(coords), target.NCells())
	}
	cells := make([]float64, len(coords))
	for i, coord := range coords {
		var err error
		cells[i], err = src.Sample(coord[0], coord[1], method)
		if err != nil {
			return nil, err
		}
	}
	return newWithCells(target, cells), nil
}

// Sample returns the value at (x, y) using method. It returns NoData outside
// r.
func (r *Raster) Sample(x, y float64, method Resampling) (float64, error) {
	switch method {
	case Nearest:
		return r.sampleNearest(x, y), nil
	case Bilinear:
		return r.sampleBilinear(x, y), nil
	default:
		return NoData, fmt.Errorf("%w: %v", ErrUnknownResampling, method)
	}
}

func (r *Raster) sampleNearest(x, y float64) float64 {
	value, _ := r.Value(x, y)
	return value
}

// sampleBilinear interpolates between the centers of the four cells
// surrounding (x, y). Indexes are clamped at the edges of r, so coordinates
// between the outermost cell centers and the edge take the edge values. Any
// no-data neighbor with a non-zero weight makes the result NoData.
func (r *Raster) sampleBilinear(x, y float64) float64 {
	if !r.grid.extent.Contains(x, y) {
		return NoData
	}
	fx := (x-r.grid.extent.XMin)/r.grid.resolution.X - 0.5
	fy := (r.grid.extent.YMax-y)/r.grid.resolution.Y - 0.5
	col0 := int(math.Floor(fx))
	row0 := int(math.Floor(fy))
	dx := fx - float64(col0)
	dy := fy - float64(row0)

	clampCol := func(col int) int { return min(max(col, 0), r.grid.ncols-1) }
	clampRow := func(row int) int { return min(max(row, 0), r.grid.nrows-1) }
	col1, row1 := clampCol(col0+1), clampRow(row0+1)
	col0, row0 = clampCol(col0), clampRow(row0)

	samples := [4]float64{
		r.cells[r.grid.index(col0, row0)],
		r.cells[r.grid.index(col1, row0)],
		r.cells[r.grid.index(col0, row1)],
		r.cells[r.grid.index(col1, row1)],
	}
	weights := [4]float64{
		(1 - dx) * (1 - dy),
		dx * (1 - dy),
		(1 - dx) * dy,
		dx * dy,
	}
	result := 0.0
	for i, sample := range samples {
		if weights[i] == 0 {
			continue
		}
		if IsNoData(sample) {
			return NoData
		}
		result += sample * weights[i]
	}
	return result
}
