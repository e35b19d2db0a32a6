package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/twpayne/go-rastergrid"
)

var (
	reprojectCRS        string
	reprojectResolution float64
	reprojectMethod     string
	reprojectTemplate   string
	reprojectSourceCRS  string
)

var reprojectCmd = &cobra.Command{
	Use:   "reproject <in.tif> <out.tif>",
	Short: "Reproject a raster to another CRS or grid",
	Long:  "Reproject a raster onto the grid of a template GeoTIFF, or onto a new grid in --crs with cells of --resolution.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, err := rastergrid.ParseResampling(reprojectMethod)
		if err != nil {
			return err
		}
		raster, err := readRaster(args[0])
		if err != nil {
			return err
		}
		if reprojectSourceCRS != "" {
			raster = raster.WithCRS(rastergrid.CRS(reprojectSourceCRS))
		}

		toolbox, err := newToolbox()
		if err != nil {
			return err
		}
		defer toolbox.Close()

		var result *rastergrid.Raster
		switch {
		case reprojectTemplate != "":
			template, err := rastergrid.ReadGeoTIFFGrid(dirFS(reprojectTemplate))
			if err != nil {
				return eris.Wrapf(err, "reproject: read %s", reprojectTemplate)
			}
			result, err = toolbox.Reproject(raster, template, method)
			if err != nil {
				return eris.Wrapf(err, "reproject: %s", args[0])
			}
		case reprojectCRS != "" && reprojectResolution > 0:
			resolution := rastergrid.Resolution{X: reprojectResolution, Y: reprojectResolution}
			result, err = toolbox.ProjectTo(raster, rastergrid.CRS(reprojectCRS), resolution, method)
			if err != nil {
				return eris.Wrapf(err, "reproject: %s", args[0])
			}
		default:
			return eris.New("reproject: --template or both --crs and --resolution are required")
		}
		return writeRasters(toolbox, args[1], result)
	},
}

func init() {
	reprojectCmd.Flags().StringVar(&reprojectCRS, "crs", "", "target CRS, e.g. EPSG:3035")
	reprojectCmd.Flags().Float64Var(&reprojectResolution, "resolution", 0, "target cell size in target CRS units")
	reprojectCmd.Flags().StringVar(&reprojectMethod, "method", "nearest", "resampling method: nearest or bilinear")
	reprojectCmd.Flags().StringVar(&reprojectTemplate, "template", "", "GeoTIFF whose grid to reproject onto")
	reprojectCmd.Flags().StringVar(&reprojectSourceCRS, "source-crs", "", "CRS of the input, overriding the file")
	reprojectCmd.MarkFlagsMutuallyExclusive("template", "crs")
	rootCmd.AddCommand(reprojectCmd)
}
