package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/music-catalog/internal/export"
	"github.com/franz/music-catalog/internal/util"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full catalog as a single JSON document",
	Long: `Write the persisted catalog (all collections and tracks) to a JSON
document in the same record shape the import side consumes. The
document is the source of truth for a presentation layer.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("out", "o", "catalog.json", "output file")
}

func runExport(cmd *cobra.Command, args []string) error {
	setupLogging()

	out, _ := cmd.Flags().GetString("out")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := db.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if err := export.WriteFile(cat, out); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	util.SuccessLog("Exported %d collections and %d tracks to %s",
		cat.CountCollections(), cat.CountTracks(), out)
	return nil
}
