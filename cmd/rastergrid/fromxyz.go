package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twpayne/go-rastergrid"
)

var fromXYZCRS string

var fromXYZCmd = &cobra.Command{
	Use:   "fromxyz <points.csv> <out.tif>",
	Short: "Build a raster from a point table",
	Long:  "Build a raster from a CSV table with x, y and value columns whose points lie on a regular grid.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "fromxyz: open %s", args[0])
		}
		defer file.Close()

		raster, err := rastergrid.ReadPointsCSV(file, rastergrid.CRS(fromXYZCRS))
		if err != nil {
			return eris.Wrapf(err, "fromxyz: %s", args[0])
		}
		zap.L().Info("fromxyz: built raster", zap.Stringer("grid", raster.Grid()))

		toolbox, err := newToolbox()
		if err != nil {
			return err
		}
		defer toolbox.Close()
		return writeRasters(toolbox, args[1], raster)
	},
}

func init() {
	fromXYZCmd.Flags().StringVar(&fromXYZCRS, "crs", "", "CRS of the points, e.g. EPSG:4326")
	rootCmd.AddCommand(fromXYZCmd)
}
