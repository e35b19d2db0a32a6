package rastergrid

import (
	"fmt"
	"math"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-proj/v10"
	"go.uber.org/zap"
)

// densifyCount is the number of points per edge used when transforming an
// extent, so that curved edges in the target CRS are bounded.
const densifyCount = 21

// projDefinition returns the definition of c understood by PROJ.
func projDefinition(c CRS) string {
	def := string(c.Normalize())
	if strings.HasPrefix(def, "+") && !strings.Contains(def, "+type=crs") {
		def += " +type=crs"
	}
	return def
}

// transformer returns a PROJ transformer from source to target with
// longitude, easting first axis order, using the cache if possible. t.mutex
// must be held.
func (t *Toolbox) transformer(source, target CRS) (*proj.PJ, error) {
	if source.IsZero() || target.IsZero() {
		return nil, ErrMissingCRS
	}
	key := crsPair{source: source.Normalize(), target: target.Normalize()}

	if pj, ok := t.transformers.Get(key); ok {
		transformerCacheHits.Inc()
		return pj, nil
	}

	transformerCacheMisses.Inc()

	pj, err := proj.NewCRSToCRS(projDefinition(key.source), projDefinition(key.target), nil)
	if err != nil {
		return nil, fmt.Errorf("%s -> %s: %w", key.source, key.target, err)
	}
	defer pj.Destroy()
	normalizedPJ, err := pj.NormalizeForVisualization()
	if err != nil {
		return nil, fmt.Errorf("%s -> %s: %w", key.source, key.target, err)
	}

	t.logger.Debug("created transformer", zap.Stringer("source", key.source), zap.Stringer("target", key.target))
	t.transformers.Add(key, normalizedPJ)
	return normalizedPJ, nil
}

// transformCoords transforms coords in place from source to target.
// Coordinates that cannot be transformed are set to NaN.
func (t *Toolbox) transformCoords(source, target CRS, coords [][]float64) error {
	if source.Equal(target) {
		return nil
	}
	// Transformers may be evicted and destroyed by another caller, so the
	// lock is held until pj is no longer used.
	t.mutex.Lock()
	defer t.mutex.Unlock()

	pj, err := t.transformer(source, target)
	if err != nil {
		return err
	}

	original := cloneCoords(coords)
	if err := pj.ForwardFloat64Slices(coords); err != nil {
		// Fall back to transforming coordinates one at a time so that a
		// single failure only loses that coordinate.
		t.logger.Debug("batch transform failed", zap.Error(err))
		failures := 0
		for i, coord := range original {
			result, err := pj.Forward(proj.Coord{coord[0], coord[1], 0, 0})
			if err != nil {
				coords[i][0], coords[i][1] = math.NaN(), math.NaN()
				failures++
				continue
			}
			coords[i][0], coords[i][1] = result[0], result[1]
		}
		t.logger.Debug("transformed coordinates individually", zap.Int("failures", failures))
	}
	for _, coord := range coords {
		if math.IsInf(coord[0], 0) || math.IsInf(coord[1], 0) {
			coord[0], coord[1] = math.NaN(), math.NaN()
		}
	}
	return nil
}

// TransformExtent returns the bounding box in target of extent in source. The
// edges of extent are densified before transformation.
func (t *Toolbox) TransformExtent(extent Extent, source, target CRS) (Extent, error) {
	if source.Equal(target) {
		return extent, nil
	}
	coords := make([][]float64, 0, 4*densifyCount)
	for i := range densifyCount {
		f := float64(i) / float64(densifyCount-1)
		x := extent.XMin + f*extent.Width()
		y := extent.YMin + f*extent.Height()
		coords = append(coords,
			[]float64{x, extent.YMin},
			[]float64{x, extent.YMax},
			[]float64{extent.XMin, y},
			[]float64{extent.XMax, y},
		)
	}
	if err := t.transformCoords(source, target, coords); err != nil {
		return Extent{}, err
	}
	result := Extent{
		XMin: math.Inf(1),
		XMax: math.Inf(-1),
		YMin: math.Inf(1),
		YMax: math.Inf(-1),
	}
	for _, coord := range coords {
		if math.IsNaN(coord[0]) || math.IsNaN(coord[1]) {
			continue
		}
		result.XMin = min(result.XMin, coord[0])
		result.XMax = max(result.XMax, coord[0])
		result.YMin = min(result.YMin, coord[1])
		result.YMax = max(result.YMax, coord[1])
	}
	if !result.valid() {
		return Extent{}, fmt.Errorf("%w: %v cannot be transformed from %s to %s", ErrInvalidGrid, extent, source, target)
	}
	return result, nil
}

// Reproject returns a new Raster on target with values resampled from src
// using method. Each target cell center is transformed into src's CRS and
// sampled there.
func (t *Toolbox) Reproject(src *Raster, target Grid, method Resampling) (*Raster, error) {
	if src.CRS().IsZero() || target.CRS().IsZero() {
		return nil, ErrMissingCRS
	}
	t.logger.Info("reproject",
		zap.Stringer("source", src.CRS()),
		zap.Stringer("target", target.CRS()),
		zap.Stringer("method", method),
		zap.Int("ncols", target.NCols()),
		zap.Int("nrows", target.NRows()),
	)
	coords := cellCenters(target)
	if err := t.transformCoords(target.CRS(), src.CRS(), coords); err != nil {
		return nil, err
	}
	result, err := resampleAt(src, target, coords, method)
	if err != nil {
		return nil, err
	}
	cellsReprojected.Add(float64(target.NCells()))
	t.logger.Debug("reprojected", zap.Int("data_cells", result.DataCount()))
	return result, nil
}

// ProjectTo returns src reprojected to crs with the given resolution. The
// target extent is the transformed extent of src, anchored at its top-left
// corner and widened to a whole number of cells.
func (t *Toolbox) ProjectTo(src *Raster, crs CRS, resolution Resolution, method Resampling) (*Raster, error) {
	if src.CRS().IsZero() || crs.IsZero() {
		return nil, ErrMissingCRS
	}
	extent, err := t.TransformExtent(src.grid.extent, src.CRS(), crs)
	if err != nil {
		return nil, err
	}
	ncols := max(int(math.Ceil(extent.Width()/resolution.X-gridTolerance)), 1)
	nrows := max(int(math.Ceil(extent.Height()/resolution.Y-gridTolerance)), 1)
	extent.XMax = extent.XMin + float64(ncols)*resolution.X
	extent.YMin = extent.YMax - float64(nrows)*resolution.Y
	target, err := NewGrid(crs, extent, resolution)
	if err != nil {
		return nil, err
	}
	return t.Reproject(src, target, method)
}

// TransformFeatures returns a copy of fs with every geometry transformed to
// crs.
func (t *Toolbox) TransformFeatures(fs *FeatureSet, crs CRS) (*FeatureSet, error) {
	if fs.CRS.IsZero() || crs.IsZero() {
		return nil, ErrMissingCRS
	}
	result := &FeatureSet{
		CRS:      crs.Normalize(),
		Fields:   fs.Fields,
		Features: make([]Feature, len(fs.Features)),
	}
	for i, feature := range fs.Features {
		result.Features[i].Attributes = feature.Attributes
		if feature.Geometry == nil {
			continue
		}
		g, err := cloneGeometry(feature.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if err := t.transformCoords(fs.CRS, crs, flatCoordSlices(g)); err != nil {
			return nil, err
		}
		result.Features[i].Geometry = g
	}
	t.logger.Debug("transformed features", zap.Int("features", len(fs.Features)), zap.Stringer("target", crs))
	return result, nil
}

// flatCoordSlices returns slices of length two aliasing the x and y values of
// each coordinate of g, so that transforming them updates g in place.
func flatCoordSlices(g geom.T) [][]float64 {
	flatCoords := g.FlatCoords()
	stride := g.Stride()
	coords := make([][]float64, 0, len(flatCoords)/stride)
	for i := 0; i+1 < len(flatCoords); i += stride {
		coords = append(coords, flatCoords[i:i+2:i+2])
	}
	return coords
}

func cloneCoords(coords [][]float64) [][]float64 {
	clonedCoordsFlat := make([]float64, 2*len(coords))
	clonedCoords := make([][]float64, len(coords))
	for i, coord := range coords {
		copy(clonedCoordsFlat[2*i:2*i+2], coord)
		clonedCoords[i] = clonedCoordsFlat[2*i : 2*i+2]
	}
	return clonedCoords
}
