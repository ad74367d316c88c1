package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cemint/cemint-insights/app"
	"github.com/cemint/cemint-insights/runlog"
)

var errHistoryDisabled = errors.New("run history is disabled (set history.enabled in config.yml)")

func newRunsCmd(opts *rootOptions) *cobra.Command {
	var (
		q      runlog.Query
		status string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded ETL runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Status = runlog.Status(status)
			return withHistory(cmd, opts, func(ctx context.Context, h *runlog.Store) error {
				runs, err := h.List(ctx, q)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, runs)
				}
				for _, r := range runs {
					printRun(out, r)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status: succeeded or failed")
	cmd.Flags().StringVar(&q.Scenario, "scenario", "", "only runs of this scenario")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", runlog.DefaultLimit, "maximum number of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print runs as JSON")
	cmd.AddCommand(newRunsShowCmd(opts))
	return cmd
}

func newRunsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one recorded run with its stages as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(ctx context.Context, h *runlog.Store) error {
				r, err := h.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
}

func withHistory(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, h *runlog.Store) error) error {
	rt, err := newRuntime(cmd, opts)
	if err != nil {
		return err
	}
	if rt.history == nil {
		return errHistoryDisabled
	}
	return rt.task(cmd.Context(), func(ctx context.Context, svc *app.Services) error {
		return fn(ctx, svc.History)
	})
}

func printRun(w io.Writer, r runlog.Run) {
	line := fmt.Sprintf("%-32s %-9s rows=%-6d %-8s %s", r.ID, r.Status, r.Rows,
		(time.Duration(r.DurationMS) * time.Millisecond).String(), r.StartedAt.Format(time.RFC3339))
	if r.Error != "" {
		line += "  " + r.Error
	}
	fmt.Fprintln(w, line)
}
