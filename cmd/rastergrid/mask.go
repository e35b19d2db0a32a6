package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/twpayne/go-rastergrid"
)

var (
	maskMask        string
	maskFeatures    string
	maskValues      []float64
	maskInverse     bool
	maskUpdateValue float64
)

var maskCmd = &cobra.Command{
	Use:   "mask <in.tif> <out.tif>",
	Short: "Mask a raster with another raster or with features",
	Long:  "Set cells to no-data where the mask raster is no-data, or where no feature covers them.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raster, err := readRaster(args[0])
		if err != nil {
			return err
		}

		var options []rastergrid.MaskOption
		for _, value := range maskValues {
			options = append(options, rastergrid.WithMaskValue(value))
		}
		if maskInverse {
			options = append(options, rastergrid.WithInverse())
		}
		if cmd.Flags().Changed("update-value") {
			options = append(options, rastergrid.WithUpdateValue(maskUpdateValue))
		}

		toolbox, err := newToolbox()
		if err != nil {
			return err
		}
		defer toolbox.Close()

		var result *rastergrid.Raster
		switch {
		case maskMask != "":
			mask, err := readRaster(maskMask)
			if err != nil {
				return err
			}
			result, err = rastergrid.Mask(raster, mask, options...)
			if err != nil {
				return eris.Wrapf(err, "mask: %s", args[0])
			}
		case maskFeatures != "":
			fs, err := rastergrid.ReadShapefile(maskFeatures)
			if err != nil {
				return err
			}
			result, err = toolbox.MaskFeatures(raster, fs, options...)
			if err != nil {
				return eris.Wrapf(err, "mask: %s", args[0])
			}
		default:
			return eris.New("mask: one of --mask or --features is required")
		}
		return writeRasters(toolbox, args[1], result)
	},
}

func init() {
	maskCmd.Flags().StringVar(&maskMask, "mask", "", "GeoTIFF mask")
	maskCmd.Flags().StringVar(&maskFeatures, "features", "", "shapefile mask")
	maskCmd.Flags().Float64SliceVar(&maskValues, "mask-value", nil, "mask values that also mask cells")
	maskCmd.Flags().BoolVar(&maskInverse, "inverse", false, "keep only masked cells")
	maskCmd.Flags().Float64Var(&maskUpdateValue, "update-value", 0, "value written to masked cells instead of no-data")
	maskCmd.MarkFlagsMutuallyExclusive("mask", "features")
	rootCmd.AddCommand(maskCmd)
}
