package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cemint/cemint-insights/app"
	"github.com/cemint/cemint-insights/storage"
	"github.com/cemint/cemint-insights/table"
	"github.com/cemint/cemint-insights/transform"
)

func newTransformCmd(opts *rootOptions) *cobra.Command {
	var (
		stageDir string
		outDir   string
		method   string
	)
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Run the full transform pipeline over one stage directory",
		Long: "Concatenates every CSV directly inside --stage-dir and runs fill, time features,\n" +
			"normalization, anomaly detection, clipping, scaling and KPI derivation. No schema\n" +
			"validation is applied. Artifacts go to <output_dir>/<stage> unless --out is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			return rt.task(cmd.Context(), func(ctx context.Context, svc *app.Services) error {
				tables, err := svc.Loader.LoadStage(ctx, stageDir)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(tables))
				for n := range tables {
					names = append(names, n)
				}
				sort.Strings(names)
				ordered := make([]*table.Table, 0, len(names))
				for _, n := range names {
					ordered = append(ordered, tables[n])
				}

				stage := storage.Base(stageDir)
				t, err := table.Concat(stage, ordered...)
				if err != nil {
					return err
				}

				cfg := svc.ETL.Transform
				if method != "" {
					if cfg.Method, err = transform.ParseMethod(method); err != nil {
						return err
					}
				}
				out, scaler, err := transform.Pipeline(t, cfg)
				if err != nil {
					return err
				}

				dir := outDir
				if dir == "" {
					dir = storage.Join(rt.app.Cfg.OutputDir, stage)
				}
				paths, err := svc.Writer.WriteStage(ctx, dir, stage, out, scaler)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d columns\n", stage, out.Len(), out.Width())
				for _, p := range paths {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&stageDir, "stage-dir", "s", "", "stage directory holding the CSV files")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "artifact directory (default: <output_dir>/<stage>)")
	cmd.Flags().StringVarP(&method, "method", "m", "", "normalization method: minmax or standard")
	_ = cmd.MarkFlagRequired("stage-dir")
	return cmd
}
