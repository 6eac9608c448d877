package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"

	apperrors "datalab/internal/errors"
)

func newSplitCmd(a *app) *cobra.Command {
	var (
		testSize float64
		seed     int64
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "split [--test-size <fraction>] [--seed <n>] [--raw]",
		Short: "Shuffle the table into train/test partitions and save them with metadata.json.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := a.experiment()
			if cmd.Flags().Changed("test-size") {
				cfg.TestSize = testSize
			}
			if cmd.Flags().Changed("seed") {
				cfg.RandomState = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			df, err := a.splitInput(ctx, raw)
			if err != nil {
				return err
			}

			train, test, err := a.store().SplitAndSave(ctx, a.cfg.DataDir, a.source, df, cfg)
			if err != nil {
				return err
			}
			a.metrics.SetRows("split_train", train.Nrow())
			a.metrics.SetRows("split_test", test.Nrow())

			fmt.Fprintf(cmd.OutOrStdout(), "train: %d rows, test: %d rows (test_size=%g, random_state=%d)\n",
				train.Nrow(), test.Nrow(), cfg.TestSize, cfg.RandomState)
			return nil
		},
	}

	cmd.Flags().Float64Var(&testSize, "test-size", 0.2, "fraction of rows assigned to the test partition, in (0, 1)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random state for the shuffle")
	cmd.Flags().BoolVar(&raw, "raw", false, "split the raw table even when a preprocessed one exists")
	return cmd
}

// splitInput prefers the preprocessed table and falls back to the raw one
func (a *app) splitInput(ctx context.Context, raw bool) (dataframe.DataFrame, error) {
	if !raw {
		df, err := a.store().LoadPreprocessed(ctx, a.cfg.DataDir, a.source)
		if err == nil {
			return df, nil
		}
		if !apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			return df, err
		}
		a.logger.WarnContext(ctx, "No preprocessed table, splitting the raw table",
			slog.String("dataset", a.source.Name))
	}
	return a.loader().Load(ctx, a.cfg.DataDir)
}
