package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/twpayne/go-rastergrid"
)

var trimCmd = &cobra.Command{
	Use:   "trim <in.tif> <out.tif>",
	Short: "Remove no-data borders",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raster, err := readRaster(args[0])
		if err != nil {
			return err
		}
		result, err := rastergrid.Trim(raster)
		if err != nil {
			return eris.Wrapf(err, "trim: %s", args[0])
		}

		toolbox, err := newToolbox()
		if err != nil {
			return err
		}
		defer toolbox.Close()
		return writeRasters(toolbox, args[1], result)
	},
}

func init() { rootCmd.AddCommand(trimCmd) }
