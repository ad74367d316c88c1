package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cemint/cemint-insights/api"
	"github.com/cemint/cemint-insights/app"
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/transform"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		inputDir string
		scenario string
		method   string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate, transform and persist every stage of a run",
		Long: "Processes one timestamped run directory. Without --input the latest run under\n" +
			"input_dir is used; --scenario selects the *_<scenario>.csv files of that run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			return rt.task(cmd.Context(), func(ctx context.Context, svc *app.Services) error {
				m := svc.Method
				if method != "" {
					if m, err = transform.ParseMethod(method); err != nil {
						return err
					}
				}

				var res *etl.RunResult
				switch {
				case scenario != "":
					res, err = svc.Orchestrator.RunScenario(ctx, rt.app.Cfg.InputDir, scenario, m)
				case inputDir != "":
					res, err = svc.Orchestrator.Run(ctx, inputDir, m)
				default:
					res, err = svc.Orchestrator.RunLatest(ctx, rt.app.Cfg.InputDir, m)
				}
				if err != nil {
					return err
				}

				summary := api.NewRunResponse(res)
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, summary)
				}
				fmt.Fprintf(out, "run %s -> %s\n", summary.RunID, summary.OutputDir)
				for _, s := range summary.Stages {
					fmt.Fprintf(out, "  %-28s rows=%-6d columns=%-3d %s\n", s.Stage, s.Rows, len(s.Columns), s.Validation.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "run directory to process (default: latest under input_dir)")
	cmd.Flags().StringVar(&scenario, "scenario", "", "process only files of this scenario in the latest run")
	cmd.Flags().StringVarP(&method, "method", "m", "", "normalization method: minmax or standard")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run summary as JSON")
	cmd.MarkFlagsMutuallyExclusive("input", "scenario")
	return cmd
}
