package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/util"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a Markdown summary of the catalog",
	Long: `Generate a human-readable Markdown report of the current catalog
state: entity counts plus the most recent run's tallies when available.
Use it to audit a merge before trusting it.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "artifacts", "output directory")
}

func runReport(cmd *cobra.Command, args []string) error {
	setupLogging()

	outDir, _ := cmd.Flags().GetString("out")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rep, err := report.GenerateSummaryReport(db, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	rep.DatabasePath = viper.GetString("db")

	filename := fmt.Sprintf("summary-%s.md", time.Now().Format("20060102-150405"))
	outputPath := filepath.Join(outDir, filename)

	if err := report.WriteMarkdownReport(rep, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report written to %s", outputPath)
	util.InfoLog("  Collections: %s", util.FormatCount(rep.Collections))
	util.InfoLog("  Tracks: %s", util.FormatCount(rep.Tracks))
	return nil
}
