package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/twpayne/go-rastergrid"
)

var infoCmd = &cobra.Command{
	Use:   "info <file.tif>",
	Short: "Describe a GeoTIFF",
	Long:  "Print the grid of a GeoTIFF and a summary of the data cells of each band.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		rasters, err := rastergrid.ReadGeoTIFF(dirFS(path))
		if err != nil {
			return eris.Wrapf(err, "info: read %s", path)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s: %s\n", path, rasters[0].Grid())
		for i, raster := range rasters {
			summary := raster.Summary()
			if summary.DataCells == 0 {
				fmt.Fprintf(w, "band %d: %d cells, no data\n", i+1, summary.Cells)
				continue
			}
			fmt.Fprintf(w, "band %d: %d cells, %d with data, min %g, max %g, mean %g\n",
				i+1, summary.Cells, summary.DataCells, summary.Min, summary.Max, summary.Mean)
		}
		return nil
	},
}

func init() { rootCmd.AddCommand(infoCmd) }
