package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v := version
		if buildInfo, ok := debug.ReadBuildInfo(); ok && v == "dev" && buildInfo.Main.Version != "" {
			v = buildInfo.Main.Version
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "rastergrid", v)
		return err
	},
}

func init() { rootCmd.AddCommand(versionCmd) }
