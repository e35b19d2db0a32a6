package rastergrid

import "errors"

var (
	ErrCellCount           = errors.New("cell count does not match grid dimensions")
	ErrDuplicateKey        = errors.New("duplicate lookup key")
	ErrGridMismatch        = errors.New("grids do not align")
	ErrInvalidGrid         = errors.New("invalid grid")
	ErrIrregularGrid       = errors.New("points do not lie on a regular grid")
	ErrMissingCRS          = errors.New("missing CRS")
	ErrNoData              = errors.New("raster has no data cells")
	ErrNoOverlap           = errors.New("extents do not overlap")
	ErrNonNumericAttribute = errors.New("non-numeric attribute value")
	ErrUnknownAttribute    = errors.New("unknown attribute")
	ErrUnknownResampling   = errors.New("unknown resampling method")
)
