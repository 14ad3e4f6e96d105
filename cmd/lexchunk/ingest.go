package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lexchunk/internal/observability"
	"github.com/dgallion1/lexchunk/internal/pipeline"
	"github.com/dgallion1/lexchunk/internal/store"
)

var ingestWorkers int
var ingestOut string

var ingestCmd = &cobra.Command{
	Use:   "ingest DIR",
	Short: "Chunk every new document under DIR into the store",
	Long: `Walk DIR for supported files (.txt, .md, .html, .pdf, .docx), skip sources
already in the store, and append the chunks of the rest in file order.
Exits non-zero when any document lost structural lines.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := cliLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		providers, err := observability.Init(ctx, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			providers.Shutdown(shutdownCtx)
		}()
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
		w := pipeline.NewWorker(st, chunkCfg, metrics, log).WithPDFFallback(cfg.Pipeline.PDFFallbackPdftotext)

		workers := cfg.Pipeline.WorkerCount
		if cmd.Flags().Changed("workers") {
			workers = ingestWorkers
		}

		start := time.Now()
		sum, err := pipeline.RunBatch(ctx, w, args[0], workers)
		if sum != nil {
			renderSummary(cmd.OutOrStdout(), sum, chunkCfg.MaxTokens, time.Since(start))
		}
		if err != nil {
			return err
		}

		if ingestOut != "" {
			n, err := store.ExportFile(ctx, st, ingestOut)
			if err != nil {
				return err
			}
			renderExport(cmd.OutOrStdout(), ingestOut, n)
		}

		if sum.IntegrityFailures > 0 {
			return fmt.Errorf("%d documents failed coverage verification", sum.IntegrityFailures)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "Documents processed concurrently (overrides config)")
	ingestCmd.Flags().StringVarP(&ingestOut, "out", "o", "", "Also export the whole store to this JSON file")
	rootCmd.AddCommand(ingestCmd)
}
