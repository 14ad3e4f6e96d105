package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lexchunk/internal/chunker"
	"github.com/dgallion1/lexchunk/internal/config"
	"github.com/dgallion1/lexchunk/internal/tokenizer"
)

var version = "dev"

var (
	configPath string
	maxTokens  int
	model      string
	storeDSN   string
)

var rootCmd = &cobra.Command{
	Use:   "lexchunk",
	Short: "Hierarchy-aware chunking for Vietnamese legal documents",
	Long: `lexchunk splits Vietnamese statutes, decrees and circulars into retrieval
chunks. Every chunk carries its full heading path (document title, chapter,
article, clause...) and stays within a token budget.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().IntVar(&maxTokens, "max-tokens", 0, "Token budget per chunk (overrides config)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model name used to pick the tokenizer encoding (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storeDSN, "store", "", "SQLite path or postgres:// URL (overrides config)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers command-line flags over the loaded config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("max-tokens") {
		cfg.Chunking.MaxTokens = maxTokens
	}
	if flags.Changed("model") {
		cfg.Chunking.Model = model
	}
	if flags.Changed("store") {
		cfg.Store.DSN = storeDSN
	}
	return cfg, cfg.Validate()
}

// cliLogger writes human-readable logs to stderr, leaving stdout for output.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func chunkConfig(cfg config.Config, log *slog.Logger) (chunker.Config, error) {
	counter, err := tokenizer.New(cfg.Tokenizer.Kind, cfg.Tokenizer.CacheSize, log)
	if err != nil {
		return chunker.Config{}, err
	}
	return chunker.Config{
		MaxTokens: cfg.Chunking.MaxTokens,
		Model:     cfg.Chunking.Model,
		Counter:   counter,
		URL:       cfg.Chunking.URL,
		Logger:    log,
	}, nil
}
