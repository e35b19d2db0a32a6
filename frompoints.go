package rastergrid

import (
	"fmt"
	"math"
	"slices"
)

// FromPoints returns a new Raster whose cell centers are the coordinates of
// points. The resolution is the smallest spacing between distinct x and y
// values and the extent is the bounding box of points expanded by half a
// cell. Every spacing must be a whole multiple of the resolution and no two
// points may share a cell.
func FromPoints(crs CRS, points []Point) (*Raster, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrIrregularGrid)
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, point := range points {
		if math.IsNaN(point.X) || math.IsNaN(point.Y) || math.IsInf(point.X, 0) || math.IsInf(point.Y, 0) {
			return nil, fmt.Errorf("%w: invalid coordinate (%g, %g)", ErrIrregularGrid, point.X, point.Y)
		}
		xs[i] = point.X
		ys[i] = point.Y
	}
	xs = distinctSorted(xs)
	ys = distinctSorted(ys)

	dx, okX := minSpacing(xs)
	dy, okY := minSpacing(ys)
	switch {
	case !okX && !okY:
		return nil, fmt.Errorf("%w: cannot infer resolution from a single point", ErrIrregularGrid)
	case !okX:
		dx = dy
	case !okY:
		dy = dx
	}
	if err := checkSpacing("x", xs, dx); err != nil {
		return nil, err
	}
	if err := checkSpacing("y", ys, dy); err != nil {
		return nil, err
	}

	extent := Extent{
		XMin: xs[0] - dx/2,
		XMax: xs[len(xs)-1] + dx/2,
		YMin: ys[0] - dy/2,
		YMax: ys[len(ys)-1] + dy/2,
	}
	grid, err := NewGrid(crs, extent, Resolution{X: dx, Y: dy})
	if err != nil {
		return nil, err
	}

	cells := make([]float64, grid.NCells())
	assigned := make([]bool, grid.NCells())
	for i := range cells {
		cells[i] = NoData
	}
	for _, point := range points {
		col := int(math.Round((point.X - xs[0]) / dx))
		row := int(math.Round((ys[len(ys)-1] - point.Y) / dy))
		index := grid.index(col, row)
		if assigned[index] {
			return nil, fmt.Errorf("%w: duplicate point (%g, %g)", ErrIrregularGrid, point.X, point.Y)
		}
		assigned[index] = true
		cells[index] = point.Value
	}
	return newWithCells(grid, cells), nil
}

func distinctSorted(values []float64) []float64 {
	slices.Sort(values)
	return slices.CompactFunc(values, func(a, b float64) bool {
		return math.Abs(a-b) <= 1e-9*max(1, math.Abs(a))
	})
}

// minSpacing returns the smallest difference between consecutive values.
func minSpacing(sorted []float64) (float64, bool) {
	if len(sorted) < 2 {
		return 0, false
	}
	spacing := math.Inf(1)
	for i := 1; i < len(sorted); i++ {
		spacing = min(spacing, sorted[i]-sorted[i-1])
	}
	return spacing, true
}

// checkSpacing checks that every value in sorted is a whole number of steps
// from the first.
func checkSpacing(axis string, sorted []float64, step float64) error {
	for _, v := range sorted[1:] {
		n := (v - sorted[0]) / step
		if math.Abs(n-math.Round(n)) > gridTolerance {
			return fmt.Errorf("%w: %s=%g is not a multiple of %g from %g", ErrIrregularGrid, axis, v, step, sorted[0])
		}
	}
	return nil
}
