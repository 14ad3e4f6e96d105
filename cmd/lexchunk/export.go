package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/lexchunk/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export OUT.json",
	Short: "Write every stored chunk to a JSON array file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := store.Open(cmd.Context(), cfg.Store.DSN, cliLogger())
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := store.ExportFile(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		renderExport(cmd.OutOrStdout(), args[0], n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
