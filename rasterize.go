package rastergrid

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
)

// spatialRef returns the GDAL spatial reference for c.
func spatialRef(c CRS) (*godal.SpatialRef, error) {
	if code, ok := c.EPSGCode(); ok {
		return godal.NewSpatialRefFromEPSG(code)
	}
	if c.IsPROJString() {
		return godal.NewSpatialRefFromProj4(string(c.Normalize()))
	}
	return godal.NewSpatialRefFromWKT(string(c))
}

// Rasterize burns the features of fs into a new Raster on template. The
// value burned for each feature is its attribute value, or its 1-based index
// if attribute is empty. Features are burned in order so later features
// overwrite earlier ones. Cells not covered by any feature are no-data.
func (t *Toolbox) Rasterize(fs *FeatureSet, template Grid, attribute string) (*Raster, error) {
	values, err := fs.Values(attribute)
	if err != nil {
		return nil, err
	}
	if !fs.CRS.IsZero() && !template.CRS().IsZero() && !fs.CRS.Equal(template.CRS()) {
		if fs, err = t.TransformFeatures(fs, template.CRS()); err != nil {
			return nil, err
		}
	}

	t.logger.Info("rasterize",
		zap.Int("features", fs.Len()),
		zap.String("attribute", attribute),
		zap.Int("ncols", template.NCols()),
		zap.Int("nrows", template.NRows()),
		zap.Bool("all_touched", t.allTouched),
	)

	ds, err := godal.Create(godal.Memory, "", 1, godal.Float64, template.NCols(), template.NRows())
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	if err := ds.SetGeoTransform(template.GeoTransform()); err != nil {
		return nil, err
	}
	band := ds.Bands()[0]
	if err := band.Fill(NoData, 0); err != nil {
		return nil, err
	}

	burned := 0
	for i, feature := range fs.Features {
		value := values[i]
		if feature.Geometry == nil || math.IsNaN(value) {
			continue
		}
		if len(feature.Geometry.FlatCoords()) == 0 {
			continue
		}
		if err := t.burn(ds, feature, value); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		burned++
	}

	cells := make([]float64, template.NCells())
	if err := band.Read(0, 0, cells, template.NCols(), template.NRows()); err != nil {
		return nil, err
	}
	featuresRasterized.Add(float64(burned))
	t.logger.Debug("rasterized", zap.Int("burned", burned), zap.Int("skipped", fs.Len()-burned))
	return newWithCells(template, cells), nil
}

func (t *Toolbox) burn(ds *godal.Dataset, feature Feature, value float64) error {
	data, err := wkb.Marshal(feature.Geometry, wkb.NDR)
	if err != nil {
		return err
	}
	g, err := godal.NewGeometryFromWKB(data, nil)
	if err != nil {
		return err
	}
	defer g.Close()
	if t.allTouched {
		return ds.RasterizeGeometry(g, godal.Values(value), godal.AllTouched())
	}
	return ds.RasterizeGeometry(g, godal.Values(value))
}

// MaskFeatures returns r with every cell not covered by a feature of fs set
// to no-data.
func (t *Toolbox) MaskFeatures(r *Raster, fs *FeatureSet, options ...MaskOption) (*Raster, error) {
	if r.CRS().IsZero() || fs.CRS.IsZero() {
		return nil, ErrMissingCRS
	}
	mask, err := t.Rasterize(fs, r.Grid(), "")
	if err != nil {
		return nil, err
	}
	return Mask(r, mask, options...)
}
