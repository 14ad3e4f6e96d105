package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/lexchunk/internal/mcpserver"
	"github.com/dgallion1/lexchunk/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve chunking tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// stdout carries the MCP protocol.
		log := cliLogger()

		st, err := store.Open(cmd.Context(), cfg.Store.DSN, log)
		if err != nil {
			return err
		}
		defer st.Close()

		chunkCfg, err := chunkConfig(cfg, log)
		if err != nil {
			return err
		}
		return mcpserver.NewServer(st, chunkCfg, log).Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
