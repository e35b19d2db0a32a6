package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/twpayne/go-rastergrid"
)

var (
	rasterizeAttribute string
	rasterizeCRS       string
)

var rasterizeCmd = &cobra.Command{
	Use:   "rasterize <features.shp> <template.tif> <out.tif>",
	Short: "Burn shapefile features into a raster",
	Long:  "Burn each feature's attribute value, or its 1-based index if no attribute is given, into a raster on the template's grid.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, err := rastergrid.ReadShapefile(args[0])
		if err != nil {
			return err
		}
		if rasterizeCRS != "" {
			fs.CRS = rastergrid.CRS(rasterizeCRS).Normalize()
		}
		template, err := rastergrid.ReadGeoTIFFGrid(dirFS(args[1]))
		if err != nil {
			return eris.Wrapf(err, "rasterize: read %s", args[1])
		}

		toolbox, err := newToolbox()
		if err != nil {
			return err
		}
		defer toolbox.Close()

		result, err := toolbox.Rasterize(fs, template, rasterizeAttribute)
		if err != nil {
			return eris.Wrapf(err, "rasterize: %s", args[0])
		}
		return writeRasters(toolbox, args[2], result)
	},
}

func init() {
	rasterizeCmd.Flags().StringVar(&rasterizeAttribute, "attribute", "", "attribute whose values to burn")
	rasterizeCmd.Flags().StringVar(&rasterizeCRS, "crs", "", "CRS of the features, overriding the .prj file")
	rootCmd.AddCommand(rasterizeCmd)
}
