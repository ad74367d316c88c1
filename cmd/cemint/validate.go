package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cemint/cemint-insights/app"
	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/loader"
	"github.com/cemint/cemint-insights/schema"
)

// tableReport is the validation outcome of one CSV file.
type tableReport struct {
	Stage  string        `json:"stage"`
	Table  string        `json:"table"`
	Rows   int           `json:"rows"`
	Report schema.Report `json:"report"`
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		inputDir string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every table of a run against its stage schema",
		Long: "Validates each CSV of the run separately and prints one verdict per file.\n" +
			"Exits non-zero when any table fails or a stage has no schema.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			return rt.task(cmd.Context(), func(ctx context.Context, svc *app.Services) error {
				var run *loader.Run
				if inputDir != "" {
					run, err = svc.Loader.LoadRun(ctx, inputDir)
				} else {
					run, err = svc.Loader.LoadLatestRun(ctx, rt.app.Cfg.InputDir)
				}
				if err != nil {
					return err
				}

				reports, failed := validateRun(run, svc.Schemas)
				out := cmd.OutOrStdout()
				if asJSON {
					if err := printJSON(out, reports); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(out, "run %s\n", run.ID)
					for _, r := range reports {
						verdict := "ok"
						if !r.Report.OK {
							verdict = "FAIL"
						}
						fmt.Fprintf(out, "  %-4s %s/%s (%d rows): %s\n", verdict, r.Stage, r.Table, r.Rows, r.Report.Message)
					}
				}
				if failed > 0 {
					return apperrors.ValidationFailed(run.ID, fmt.Sprintf("%d of %d tables failed validation", failed, len(reports)))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "run directory (default: latest under input_dir)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}

// validateRun checks each table of run. A stage without a schema fails all
// of its tables.
func validateRun(run *loader.Run, registry *schema.Registry) ([]tableReport, int) {
	var (
		reports []tableReport
		failed  int
	)
	for _, stage := range run.StageNames() {
		tables := run.Stages[stage]
		names := make([]string, 0, len(tables))
		for n := range tables {
			names = append(names, n)
		}
		sort.Strings(names)

		s, err := registry.Get(stage)
		for _, n := range names {
			r := tableReport{Stage: stage, Table: n, Rows: tables[n].Len()}
			if err != nil {
				r.Report = schema.Report{Message: err.Error()}
			} else {
				r.Report = schema.Check(tables[n], s)
			}
			if !r.Report.OK {
				failed++
			}
			reports = append(reports, r)
		}
	}
	return reports, failed
}
