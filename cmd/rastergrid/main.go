package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twpayne/go-rastergrid"
	"github.com/twpayne/go-rastergrid/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "rastergrid",
	Short:         "Grid-based raster processing",
	Long:          "Builds, substitutes, crops, trims, reprojects, rasterizes and masks single-band rasters.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newToolbox returns a Toolbox configured from cfg.
func newToolbox() (*rastergrid.Toolbox, error) {
	toolbox, err := rastergrid.NewToolbox(
		rastergrid.WithLogger(zap.L()),
		rastergrid.WithTransformCacheSize(cfg.Toolbox.TransformCacheSize),
		rastergrid.WithAllTouched(cfg.Toolbox.AllTouched),
	)
	if err != nil {
		return nil, eris.Wrap(err, "rastergrid: create toolbox")
	}
	return toolbox, nil
}

// dirFS returns a filesystem rooted at the directory containing path and the
// name of path within it.
func dirFS(path string) (fs.FS, string) {
	return os.DirFS(filepath.Dir(path)), filepath.Base(path)
}

// readRaster reads band 1 of the GeoTIFF at path.
func readRaster(path string) (*rastergrid.Raster, error) {
	rasters, err := rastergrid.ReadGeoTIFF(dirFS(path))
	if err != nil {
		return nil, eris.Wrapf(err, "rastergrid: read %s", path)
	}
	return rasters[0], nil
}

// writeRasters writes rasters to the GeoTIFF at path, refusing to replace an
// existing file unless output.overwrite is set.
func writeRasters(toolbox *rastergrid.Toolbox, path string, rasters ...*rastergrid.Raster) error {
	if !cfg.Output.Overwrite {
		switch _, err := os.Stat(path); {
		case err == nil:
			return eris.Wrapf(fs.ErrExist, "rastergrid: %s", path)
		case !errors.Is(err, fs.ErrNotExist):
			return eris.Wrapf(err, "rastergrid: stat %s", path)
		}
	}
	if err := toolbox.WriteGeoTIFF(path, rasters...); err != nil {
		return eris.Wrapf(err, "rastergrid: write %s", path)
	}
	zap.L().Info("wrote raster", zap.String("path", path), zap.Int("bands", len(rasters)))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
