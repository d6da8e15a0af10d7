package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lessoncut/internal/api"
	"lessoncut/internal/deps"
	"lessoncut/internal/export"
	"lessoncut/internal/exportstore"
	"lessoncut/internal/logging"
	"lessoncut/internal/render"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for the editing UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Paths.APIBind
			}
			logger := ctx.logger()
			for _, missing := range deps.Missing(deps.CheckBinaries(deps.Requirements(cfg))) {
				logging.WarnWithContext(logger, "dependency unavailable", "dependency_missing",
					logging.String("dependency", missing.Name),
					logging.String("detail", missing.Detail),
					logging.String(logging.FieldImpact, "exports started over HTTP will fail"),
				)
			}
			return ctx.withStore(func(store *exportstore.Store) error {
				renderer := render.NewCLI(render.WithBinary(cfg.Export.RendererBinary))
				srv := api.NewServer(bind, api.Options{
					Exporter:  export.NewControllerFromConfig(cfg, renderer, store, logger),
					Records:   store,
					Timeline:  cfg.Timeline,
					NoticeTTL: cfg.NoticeTTL(),
					Logger:    logger,
				})
				if err := srv.Start(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())
				<-cmd.Context().Done()
				srv.Stop()
				logger.Info("lessoncut api shutting down")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}
