package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cemint/cemint-insights/alert/kafka"
	"github.com/cemint/cemint-insights/app"
	"github.com/cemint/cemint-insights/bootstrap"
	"github.com/cemint/cemint-insights/config"
	"github.com/cemint/cemint-insights/observability"
	"github.com/cemint/cemint-insights/runlog"
	"github.com/cemint/cemint-insights/storage"
)

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

func execute(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "cemint",
		Short:         "Cement plant data pipeline and insights service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: cmd/cemint/config.yml, config/config.yml or ./config.yml)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file to load")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newTransformCmd(opts),
		newValidateCmd(opts),
		newTrainCmd(opts),
		newServeCmd(opts),
		newRunsCmd(opts),
	)
	return rootCmd
}

func loadConfig(opts *rootOptions) (*app.Config, error) {
	var loaderOpts []config.LoaderOption
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
	}

	cfg := &app.Config{}
	if err := config.LoadConfig(app.ServiceName, cfg, loaderOpts...); err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

// runtime is a bootstrapped app with its components.
type runtime struct {
	app      *bootstrap.App[*app.Config]
	store    *storage.Component
	alerts   *kafka.Component
	history  *runlog.Component
	services *app.ServicesComponent
	metrics  *observability.Metrics
}

// newRuntime loads config and registers the optional telemetry exporters,
// storage, the optional alert producer, the optional run history and the
// business services, in that order.
func newRuntime(cmd *cobra.Command, opts *rootOptions, bootOpts ...bootstrap.Option) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	bootOpts = append([]bootstrap.Option{bootstrap.WithSummaryOutput(cmd.ErrOrStderr())}, bootOpts...)
	a, err := bootstrap.NewApp(cfg, bootOpts...)
	if err != nil {
		return nil, err
	}

	rt := &runtime{app: a}
	if cfg.Observability.Enabled {
		if err := a.RegisterComponent(observability.NewComponent(cfg.Observability, cfg.Telemetry(), a.Logger)); err != nil {
			return nil, err
		}
	}
	// Instruments bind to the global meter, which forwards to the exporter
	// once the observability component starts.
	if rt.metrics, err = observability.NewMetrics(observability.Meter(app.ServiceName)); err != nil {
		return nil, err
	}
	rt.store = storage.NewComponent(cfg.Storage.Config, cfg.Storage.ProviderConfig(), a.Logger).Watch(cfg.SchemaDir)
	if err := a.RegisterComponent(rt.store); err != nil {
		return nil, err
	}
	if cfg.Alert.Enabled {
		rt.alerts = kafka.NewComponent(cfg.Alert.Kafka, a.Logger)
		if err := a.RegisterComponent(rt.alerts); err != nil {
			return nil, err
		}
	}
	if cfg.History.Enabled {
		rt.history = runlog.NewComponent(cfg.History, a.Logger)
		if err := a.RegisterComponent(rt.history); err != nil {
			return nil, err
		}
	}
	rt.services = app.NewServicesComponent(a.Cfg, rt.store, rt.alerts, a.Logger).WithHistory(rt.history).WithMetrics(rt.metrics)
	if err := a.RegisterComponent(rt.services); err != nil {
		return nil, err
	}
	return rt, nil
}

// task runs fn with the started services.
func (rt *runtime) task(ctx context.Context, fn func(ctx context.Context, svc *app.Services) error) error {
	return rt.app.RunTask(ctx, func(ctx context.Context) error {
		return fn(ctx, rt.services.Services())
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
