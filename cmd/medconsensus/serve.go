package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/internal/server"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, *cfgPath, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer rt.Close()

			srv, err := server.New(server.Options{
				Runner:     rt.orchestrator,
				Translator: rt.translator(),
				Catalog:    rt.catalog,
				Gatherer:   prometheus.DefaultGatherer,
				JWTSecret:  rt.cfg.Server.JWTSecret,
				MaxRounds:  rt.cfg.Workflow.MaxRounds,
				Logger:     rt.logger,
			})
			if err != nil {
				return err
			}
			if serveAddr == "" {
				serveAddr = rt.cfg.Server.Address
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(serveAddr) }()
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			rt.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				rt.logger.Error("graceful shutdown failed", zap.Error(err))
				return err
			}
			return <-errCh
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.address)")

	return serve
}
