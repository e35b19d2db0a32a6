package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twpayne/go-rastergrid"
)

var (
	substituteKeyColumn   string
	substituteValueColumn string
)

var substituteCmd = &cobra.Command{
	Use:   "substitute <in.tif> <table.csv> <out.tif>",
	Short: "Replace cell values using a lookup table",
	Long:  "Replace each integer cell value with the value looked up in a CSV table. Cells without a match become no-data.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		raster, err := readRaster(args[0])
		if err != nil {
			return err
		}

		file, err := os.Open(args[1])
		if err != nil {
			return eris.Wrapf(err, "substitute: open %s", args[1])
		}
		defer file.Close()
		table, err := rastergrid.ReadLookupTable[int64](file, substituteKeyColumn, substituteValueColumn)
		if err != nil {
			return eris.Wrapf(err, "substitute: %s", args[1])
		}

		result, stats := rastergrid.SubstituteWithStats(raster, table)
		zap.L().Info("substitute: done",
			zap.Int("keys", table.Len()),
			zap.Int("matched", stats.Matched),
			zap.Int("unmatched", stats.Unmatched),
			zap.Int("no_data", stats.NoData),
		)

		toolbox, err := newToolbox()
		if err != nil {
			return err
		}
		defer toolbox.Close()
		return writeRasters(toolbox, args[2], result)
	},
}

func init() {
	substituteCmd.Flags().StringVar(&substituteKeyColumn, "key-column", "id", "column holding the keys")
	substituteCmd.Flags().StringVar(&substituteValueColumn, "value-column", "value", "column holding the replacement values")
	rootCmd.AddCommand(substituteCmd)
}
