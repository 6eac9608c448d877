package commands

import (
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	apperrors "datalab/internal/errors"
	"datalab/internal/preprocess"
)

func newPreprocessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess",
		Short: "Clean the raw table and save it as processed/preprocessed_data.csv.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rules, ok := preprocess.RulesFor(a.source.Name)
			if !ok {
				return apperrors.NewInvalidArgumentError(fmt.Sprintf("no cleaning rules for dataset %s", a.source.Name))
			}

			raw, err := a.loader().Load(ctx, a.cfg.DataDir)
			if err != nil {
				return err
			}
			a.metrics.SetRows("load", raw.Nrow())

			clean, report, err := preprocess.CleanWithReport(raw, rules)
			if err != nil {
				return err
			}
			if err := a.store().SavePreprocessed(ctx, a.cfg.DataDir, a.source, clean); err != nil {
				return err
			}
			a.metrics.SetRows("preprocess", clean.Nrow())

			a.logger.InfoContext(ctx, "Preprocessing finished",
				slog.Int("input_rows", report.Input),
				slog.Int("output_rows", report.Output))

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Step", "Rows"})
			t.AppendRows([]table.Row{
				{"loaded", report.Input},
				{"deduplicated", report.Deduplicated},
				{"valid", report.Valid},
				{"after cut point", report.Output},
			})
			t.Render()
			return nil
		},
	}
}
