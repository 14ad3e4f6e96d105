package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lexchunk/internal/api"
	"github.com/dgallion1/lexchunk/internal/observability"
	"github.com/dgallion1/lexchunk/internal/pipeline"
	"github.com/dgallion1/lexchunk/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.ValidateServer(); err != nil {
			return err
		}
		log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		providers, err := observability.Init(ctx, cfg.Telemetry)
		if err != nil {
			return err
		}
		metrics, err := pipeline.NewMetrics(providers.Meter, providers.Tracer)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store.DSN, log)
		if err != nil {
			return err
		}
		defer st.Close()

		chunkCfg, err := chunkConfig(cfg, log)
		if err != nil {
			return err
		}

		// Initialize pipeline.
		w := pipeline.NewWorker(st, chunkCfg, metrics, log).WithPDFFallback(cfg.Pipeline.PDFFallbackPdftotext)
		orch := pipeline.NewOrchestrator(cfg.Pipeline, w, log)
		orch.Start(ctx)

		// Initialize HTTP server.
		srv := api.NewServer(orch, st, log, cfg)

		httpServer := &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			log.Info("shutting down...")

			orch.Stop()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
			providers.Shutdown(shutdownCtx)
		}()

		log.Info("starting lexchunk", "port", cfg.Server.Port, "store", storeKind(cfg.Store.DSN), "max_tokens", chunkCfg.MaxTokens)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
