package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lexchunk/internal/doctree"
	"github.com/dgallion1/lexchunk/internal/pipeline"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk FILE",
	Short: "Chunk one document and print the chunks as JSON",
	Long:  `Parse and chunk a single document without touching the store. Diagnostics go to stderr.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := cliLogger()
		chunkCfg, err := chunkConfig(cfg, log)
		if err != nil {
			return err
		}

		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		w := pipeline.NewWorker(nil, chunkCfg, nil, log).WithPDFFallback(cfg.Pipeline.PDFFallbackPdftotext)
		p, err := w.Prepare(cmd.Context(), filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", path, err)
		}

		chunks := p.Result.Chunks
		if chunks == nil {
			chunks = []doctree.FinalChunk{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	},
}

func init() {
	rootCmd.AddCommand(chunkCmd)
}
