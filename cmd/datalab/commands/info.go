package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"

	"datalab/internal/config"
	apperrors "datalab/internal/errors"
	"datalab/internal/files"
	"datalab/internal/stats"
	"datalab/internal/validation"
)

var infoTables = []string{"raw", "preprocessed", "train", "test"}

func newInfoCmd(a *app) *cobra.Command {
	var (
		format string
		output string
		which  string
	)

	cmd := &cobra.Command{
		Use:   "info [-p text|markdown|json] [-o <path>] [--table raw|preprocessed|train|test]",
		Short: "Print descriptive statistics of a table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := stats.ParseFormat(format)
			if err != nil {
				return err
			}

			df, err := a.infoTable(cmd, which)
			if err != nil {
				return err
			}
			summary := stats.Describe(df)

			if output == "" || output == "-" {
				return stats.Render(cmd.OutOrStdout(), summary, f)
			}

			path, err := filepath.Abs(output)
			if err != nil {
				return apperrors.NewInvalidArgumentError(fmt.Sprintf("invalid output path %q", output))
			}
			if err := validation.NewFileValidator(a.logger).ValidateOutputDirectory(filepath.Dir(path)); err != nil {
				return err
			}
			fm := files.NewManager(config.GetPaths(a.cfg.DataDir, a.source.Name), a.logger)
			if err := fm.CreateFile(path, func(w io.Writer) error {
				return stats.Render(w, summary, f)
			}); err != nil {
				return apperrors.NewStorageError("failed to write statistics", err).WithContext("path", path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "print", "p", string(stats.FormatText), fmt.Sprintf("output format %v", stats.Formats))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&which, "table", "raw", fmt.Sprintf("table to describe %v", infoTables))
	return cmd
}

func (a *app) infoTable(cmd *cobra.Command, which string) (dataframe.DataFrame, error) {
	ctx := cmd.Context()
	switch strings.ToLower(which) {
	case "raw":
		return a.loader().Load(ctx, a.cfg.DataDir)
	case "preprocessed":
		return a.store().LoadPreprocessed(ctx, a.cfg.DataDir, a.source)
	case "train", "test":
		train, test, _, err := a.store().LoadSplit(ctx, a.cfg.DataDir, a.source)
		if strings.EqualFold(which, "train") {
			return train, err
		}
		return test, err
	}
	return dataframe.DataFrame{}, apperrors.NewInvalidArgumentError(
		fmt.Sprintf("unknown table %q, expected one of %v", which, infoTables))
}
