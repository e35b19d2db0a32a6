package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twpayne/go-rastergrid/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Run a workflow",
	Long:  "Run the steps of a YAML workflow in order, stopping at the first failure.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		wf, err := workflow.Load(args[0])
		if err != nil {
			return err
		}

		toolbox, err := newToolbox()
		if err != nil {
			return err
		}
		defer toolbox.Close()

		runner := workflow.NewRunner(toolbox,
			workflow.WithLogger(zap.L()),
			workflow.WithOverwrite(cfg.Output.Overwrite),
		)
		if err := runner.Run(ctx, wf); err != nil {
			return err
		}
		zap.L().Info("run: done", zap.String("workflow", wf.Name), zap.Int("steps", len(wf.Steps)))
		return nil
	},
}

func init() { rootCmd.AddCommand(runCmd) }
