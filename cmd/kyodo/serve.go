package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kyodo/backend/internal/common/bootstrap"
	"github.com/kyodo/backend/internal/common/config"
	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/common/server"
)

type configLoader func() (config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				logger.GetInstance().Errorf("failed to load config: %v", err)
				return err
			}

			log, err := bootstrap.InitializeLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := bootstrap.New(ctx, cfg, log)
			if err != nil {
				log.Errorf("failed to initialize kyodo: %v", err)
				return err
			}
			app.Start(ctx)

			srv := server.New(cfg.HTTPPort, app.Handler(), log)
			return server.Run(ctx, srv, log,
				func(context.Context) error {
					cancel()
					return nil
				},
				func(context.Context) error {
					log.Info("closing store")
					return app.Close()
				},
			)
		},
	}
}
