package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/twpayne/go-rastergrid"
)

var (
	cropExtent   []float64
	cropTemplate string
)

var cropCmd = &cobra.Command{
	Use:   "crop <in.tif> <out.tif>",
	Short: "Crop a raster to an extent or to another raster",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raster, err := readRaster(args[0])
		if err != nil {
			return err
		}

		var result *rastergrid.Raster
		switch {
		case cropTemplate != "":
			template, err := rastergrid.ReadGeoTIFFGrid(dirFS(cropTemplate))
			if err != nil {
				return eris.Wrapf(err, "crop: read %s", cropTemplate)
			}
			result, err = rastergrid.CropTo(raster, template)
			if err != nil {
				return eris.Wrapf(err, "crop: %s", args[0])
			}
		case len(cropExtent) == 4:
			extent := rastergrid.Extent{
				XMin: cropExtent[0],
				XMax: cropExtent[1],
				YMin: cropExtent[2],
				YMax: cropExtent[3],
			}
			result, err = rastergrid.Crop(raster, extent)
			if err != nil {
				return eris.Wrapf(err, "crop: %s", args[0])
			}
		default:
			return eris.New("crop: one of --template or --extent xmin,xmax,ymin,ymax is required")
		}

		toolbox, err := newToolbox()
		if err != nil {
			return err
		}
		defer toolbox.Close()
		return writeRasters(toolbox, args[1], result)
	},
}

func init() {
	cropCmd.Flags().Float64SliceVar(&cropExtent, "extent", nil, "extent as xmin,xmax,ymin,ymax")
	cropCmd.Flags().StringVar(&cropTemplate, "template", "", "GeoTIFF whose extent to crop to")
	cropCmd.MarkFlagsMutuallyExclusive("extent", "template")
	rootCmd.AddCommand(cropCmd)
}
