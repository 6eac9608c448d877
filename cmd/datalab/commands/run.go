package commands

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"datalab/internal/infrastructure"
	"datalab/internal/operations"
)

func newRunCmd(a *app) *cobra.Command {
	var steps []string

	cmd := &cobra.Command{
		Use:   "run [--steps load,preprocess,split,verify]",
		Short: "Run the whole pipeline: load, preprocess, split and verify the saved split.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			manager, err := operations.NewPipeline(a.loader(), &operations.StageOptions{
				DataDir:    a.cfg.DataDir,
				Source:     a.source,
				Experiment: a.experiment(),
				Store:      a.store(),
				Metrics:    a.metrics,
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}

			state, err := manager.Execute(ctx, operations.OperationRequest{
				ID:    infrastructure.GetRunID(ctx),
				Steps: steps,
			})
			if state != nil {
				renderState(cmd, state)
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&steps, "steps", nil, "run only these steps (default all)")
	return cmd
}

// renderState prints one row per step
func renderState(cmd *cobra.Command, state *operations.OperationState) {
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Step", "Status", "Duration", "Message"})
	for _, id := range state.Order {
		s := state.GetStage(id)
		t.AppendRow(table.Row{s.Name, s.GetStatus(), s.Duration().Round(time.Millisecond).String(), s.GetMessage()})
	}
	t.Render()
}
