package rastergrid

import (
	"fmt"
	"io"

	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// crsMetadataKey is the GDAL metadata key under which the CRS string is
// stored verbatim.
const crsMetadataKey = "RASTERGRID_CRS"

var geoTIFFCreationOptions = []string{
	"TILED=YES",
	"BLOCKXSIZE=256",
	"BLOCKYSIZE=256",
	"COMPRESS=LZW",
	"INTERLEAVE=BAND",
}

// WriteGeoTIFF writes rasters to a GeoTIFF file called name, one band per
// raster. All rasters must share the same grid. An existing file is
// overwritten.
func (t *Toolbox) WriteGeoTIFF(name string, rasters ...*Raster) error {
	if len(rasters) == 0 {
		return fmt.Errorf("%s: no rasters", name)
	}
	grid := rasters[0].Grid()
	for i, r := range rasters[1:] {
		if err := grid.checkAligned(r.Grid()); err != nil {
			return fmt.Errorf("%s: band %d: %w", name, i+2, err)
		}
	}

	t.logger.Info("write GeoTIFF",
		zap.String("name", name),
		zap.Int("bands", len(rasters)),
		zap.Int("ncols", grid.NCols()),
		zap.Int("nrows", grid.NRows()),
		zap.Stringer("crs", grid.CRS()),
	)

	ds, err := godal.Create(godal.GTiff, name, len(rasters), godal.Float64, grid.NCols(), grid.NRows(),
		godal.CreationOption(geoTIFFCreationOptions...))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := t.populateGeoTIFF(ds, grid, rasters); err != nil {
		_ = ds.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (t *Toolbox) populateGeoTIFF(ds *godal.Dataset, grid Grid, rasters []*Raster) error {
	if err := ds.SetGeoTransform(grid.GeoTransform()); err != nil {
		return err
	}
	if crs := grid.CRS(); !crs.IsZero() {
		sr, err := spatialRef(crs)
		if err != nil {
			return fmt.Errorf("%s: %w", crs, err)
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			return err
		}
		if err := ds.SetMetadata(crsMetadataKey, string(crs)); err != nil {
			return err
		}
	}
	for i, band := range ds.Bands() {
		if err := band.SetNoData(NoData); err != nil {
			return err
		}
		if err := band.Write(0, 0, rasters[i].cells, grid.NCols(), grid.NRows()); err != nil {
			return err
		}
	}
	return nil
}

// EncodeGeoTIFF writes rasters as a GeoTIFF to w. See WriteGeoTIFF.
func (t *Toolbox) EncodeGeoTIFF(w io.Writer, rasters ...*Raster) error {
	name := "/vsimem/" + uuid.NewString() + ".tif"
	if err := t.WriteGeoTIFF(name, rasters...); err != nil {
		return err
	}
	defer func() {
		_ = godal.VSIUnlink(name)
	}()

	vf, err := godal.VSIOpen(name)
	if err != nil {
		return err
	}
	defer vf.Close()
	_, err = io.Copy(w, vf)
	return err
}
