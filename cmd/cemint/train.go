package main

import (
	"context"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cemint/cemint-insights/app"
	"github.com/cemint/cemint-insights/artifact"
	"github.com/cemint/cemint-insights/model"
	"github.com/cemint/cemint-insights/table"
	"github.com/cemint/cemint-insights/validation"
)

// trainReport is printed after a model is saved.
type trainReport struct {
	Name   string             `json:"name"`
	Path   string             `json:"path"`
	Kind   model.Kind         `json:"kind"`
	Target string             `json:"target"`
	Result *model.TrainResult `json:"result"`
}

func newTrainCmd(opts *rootOptions) *cobra.Command {
	var (
		data string
		name string
		kind string
		tc   model.TrainConfig
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a model on a processed stage table and register it",
		Long: "Reads a processed .csv or .parquet artifact, fits a model predicting --target from\n" +
			"every other numeric column and saves it to models_dir as <name>_<timestamp>.json.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tc.Kind = model.Kind(kind)
			tc.ApplyDefaults()
			if err := validation.Validate(&tc); err != nil {
				return err
			}
			if _, err := model.ParseKind(string(tc.Kind)); err != nil {
				return err
			}
			if name == "" {
				name = tc.Target + "_model"
			}
			if err := validation.New().
				Extension("data", data, ".csv", ".parquet").
				Name("name", name).
				Err(); err != nil {
				return err
			}

			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			return rt.task(cmd.Context(), func(ctx context.Context, svc *app.Services) error {
				var t *table.Table
				if strings.EqualFold(path.Ext(data), ".parquet") {
					t, err = artifact.ReadParquet(ctx, svc.Store, data)
				} else {
					t, err = artifact.ReadCSV(ctx, svc.Store, data)
				}
				if err != nil {
					return err
				}

				res, err := model.Train(t, tc)
				if err != nil {
					return err
				}
				path, err := svc.Models.Save(ctx, name, res.Model)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), trainReport{Name: name, Path: path, Kind: tc.Kind, Target: tc.Target, Result: res})
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "processed artifact path (.csv or .parquet)")
	cmd.Flags().StringVarP(&tc.Target, "target", "t", "", "target column")
	cmd.Flags().StringVarP(&name, "name", "n", "", "registry name (default: <target>_model)")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(model.KindRegressor), "regressor or classifier")
	cmd.Flags().Float64Var(&tc.TestSize, "test-size", model.DefaultTestSize, "held-out fraction")
	cmd.Flags().Uint64Var(&tc.Seed, "seed", model.DefaultSeed, "split seed")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
