package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/murakmii/tokei/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type app struct {
	verbose bool
	logger  *zap.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:          "tokei",
		Short:        "Decode row group statistics stored in parquet footers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.footerCommand(),
		a.inspectCommand(),
		a.statsCommand(),
		a.verifyCommand(),
	)
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

func (a *app) footerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "footer <parquet-file>",
		Short: "Print the location of the serialized footer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trailer, err := internal.LocateFooter(args[0])
			if err != nil {
				return fmt.Errorf("failed to locate footer: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), trailer)
		},
	}
}

func (a *app) inspectCommand() *cobra.Command {
	var opts internal.InspectOptions

	cmd := &cobra.Command{
		Use:   "inspect <parquet-file>",
		Short: "Print schema, row groups and column chunk statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			par, err := internal.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer par.Close()

			inspected, err := par.Inspect(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to inspect parquet file: %w", err)
			}

			a.logger.Debug("inspected", zap.String("path", args[0]), zap.Int("row_groups", len(inspected.RowGroups)))
			return printJSON(cmd.OutOrStdout(), inspected)
		},
	}
	cmd.Flags().BoolVar(&opts.Pages, "pages", false, "Also read page headers of every column chunk")
	return cmd
}

func (a *app) statsCommand() *cobra.Command {
	var (
		summary     bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "stats <path>...",
		Short: "Decode min/max statistics of every row group in files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.scan(cmd.Context(), concurrency, args)
			if err != nil {
				return err
			}

			if !summary {
				return printJSON(cmd.OutOrStdout(), files)
			}

			ranges, err := internal.Summarize(files)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ranges)
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "Aggregate min/max of each column over all row groups")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of files decoded concurrently (default: GOMAXPROCS)")
	return cmd
}

func (a *app) verifyCommand() *cobra.Command {
	var (
		expectPath  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "verify <path>... --expect <file.toml>",
		Short: "Check row group statistics against expected min/max values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := internal.LoadExpectations(expectPath)
			if err != nil {
				return err
			}

			files, err := a.scan(cmd.Context(), concurrency, args)
			if err != nil {
				return err
			}

			// ディレクトリ内の全ファイルの行グループをまとめて検証する
			if err := exp.VerifyFiles(files); err != nil {
				return fmt.Errorf("statistics do not match expectations: %w", err)
			}

			rowGroups := 0
			for _, f := range files {
				rowGroups += len(f.RowGroups)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d files, %d row groups\n", len(files), rowGroups)
			return nil
		},
	}
	cmd.Flags().StringVar(&expectPath, "expect", "", "TOML file describing expected statistics")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of files decoded concurrently (default: GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("expect")
	return cmd
}

func (a *app) scan(ctx context.Context, concurrency int, paths []string) ([]*internal.FileStats, error) {
	files, err := internal.NewScanner(concurrency, a.logger).Scan(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan parquet files: %w", err)
	}
	return files, nil
}

func printJSON(w io.Writer, v any) error {
	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = fmt.Fprintln(w, string(j))
	return err
}
