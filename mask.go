package rastergrid

import "slices"

// A MaskOption sets an option on Mask.
type MaskOption func(*maskOptions)

type maskOptions struct {
	maskValues  []float64
	inverse     bool
	updateValue float64
}

// WithMaskValue also masks cells where the mask equals value.
func WithMaskValue(value float64) MaskOption {
	return func(o *maskOptions) {
		o.maskValues = append(o.maskValues, value)
	}
}

// WithInverse keeps only the cells that would otherwise be masked.
func WithInverse() MaskOption {
	return func(o *maskOptions) {
		o.inverse = true
	}
}

// WithUpdateValue writes value into masked cells instead of NoData.
func WithUpdateValue(value float64) MaskOption {
	return func(o *maskOptions) {
		o.updateValue = value
	}
}

// Mask returns a copy of r where every cell whose corresponding cell in mask
// is NoData is set to NoData. r and mask must be aligned.
func Mask(r, mask *Raster, options ...MaskOption) (*Raster, error) {
	o := maskOptions{
		updateValue: NoData,
	}
	for _, option := range options {
		option(&o)
	}

	if err := r.grid.checkAligned(mask.grid); err != nil {
		return nil, err
	}

	cells := slices.Clone(r.cells)
	for i, m := range mask.cells {
		masked := IsNoData(m) || slices.Contains(o.maskValues, m)
		if masked != o.inverse {
			cells[i] = o.updateValue
		}
	}
	return newWithCells(r.grid, cells), nil
}
