package main

import (
	"github.com/spf13/cobra"

	"github.com/cemint/cemint-insights/api"
	"github.com/cemint/cemint-insights/app"
	"github.com/cemint/cemint-insights/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction, recommendation and run API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			cfg := rt.app.Cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			srv := server.New(cfg.Server, rt.app.Logger)
			srv.SetMetrics(rt.metrics)
			srv.ApplyDefaults(cfg.Name, rt.app.Components.Check)

			rt.services.OnReady(func(svc *app.Services) error {
				var handlerOpts []api.Option
				if cfg.Alert.Enabled {
					handlerOpts = append(handlerOpts, api.WithAlerts(svc.Alerts, cfg.Alert.Model))
				}
				if svc.History != nil {
					handlerOpts = append(handlerOpts, api.WithHistory(svc.History))
				}
				h := api.NewHandler(svc.Models, svc.Orchestrator, cfg.InputDir, svc.Method, rt.app.Logger, handlerOpts...)
				h.Register(srv.GinEngine())
				return nil
			})
			if err := rt.app.RegisterComponent(server.NewComponent(srv)); err != nil {
				return err
			}
			return rt.app.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}
