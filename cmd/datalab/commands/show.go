package commands

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"datalab/internal/dataset"
	"datalab/internal/exporter"
)

func newShowCmd(a *app) *cobra.Command {
	var head int

	cmd := &cobra.Command{
		Use:   "show [--head <n>]",
		Short: "Reload the saved train/test split and print its shape and parameters.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			train, test, cfg, err := a.store().LoadSplit(cmd.Context(), a.cfg.DataDir, a.source)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", dataset.ProcessedDir(a.cfg.DataDir, a.source))
			fmt.Fprintf(out, "test_size=%g random_state=%d\n", cfg.TestSize, cfg.RandomState)

			t := newTable(out)
			t.AppendHeader(table.Row{"Partition", "Rows", "Columns"})
			t.AppendRow(table.Row{"train", train.Nrow(), train.Ncol()})
			t.AppendRow(table.Row{"test", test.Nrow(), test.Ncol()})
			t.Render()

			if head > 0 {
				fmt.Fprintln(out, "\ntrain:")
				return renderHead(cmd, train, head)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&head, "head", 0, "also print the first n rows of the train partition")
	return cmd
}

// renderHead prints the header and first n rows of df
func renderHead(cmd *cobra.Command, df dataframe.DataFrame, n int) error {
	records, err := exporter.EncodeTable(df)
	if err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(toRow(records[0]))
	for _, rec := range records[1:min(n+1, len(records))] {
		t.AppendRow(toRow(rec))
	}
	t.Render()
	return nil
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
