package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/franz/music-catalog/internal/enrich"
	"github.com/franz/music-catalog/internal/util"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill missing track fields from external sources",
}

var enrichLyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "Fetch missing lyrics from an LRCLIB-style service",
	Long: `Fetch lyrics for every track that has none.

Fetches run concurrently behind a shared rate limit. A track whose bare
title is shared by multiple unrelated tracks is withheld rather than
risk enriching the wrong song; withheld tracks are tallied and logged.`,
	RunE: runEnrichLyrics,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.AddCommand(enrichLyricsCmd)

	enrichLyricsCmd.Flags().Int("concurrency", 4, "fetch worker count")
	enrichLyricsCmd.Flags().Float64("rate", 2, "outbound requests per second")
	enrichLyricsCmd.Flags().Duration("deadline", 0, "stop scheduling new fetches after this long (0 = no deadline)")
	enrichLyricsCmd.Flags().String("api", "", "lyrics API base URL (default: lrclib.net)")
}

func runEnrichLyrics(cmd *cobra.Command, args []string) error {
	setupLogging()

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	ratePerSec, _ := cmd.Flags().GetFloat64("rate")
	deadline, _ := cmd.Flags().GetDuration("deadline")
	apiBase, _ := cmd.Flags().GetString("api")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := db.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	logger := newEventLogger()
	defer logger.Close()

	source := enrich.NewLRCLIBClient(apiBase, ratePerSec)
	e := enrich.New(cat, source, enrich.Options{
		Concurrency:  concurrency,
		Deadline:     deadline,
		Logger:       logger,
		ShowProgress: true,
	})

	start := time.Now()
	result, err := e.Run(context.Background())
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	if err := db.Save(cat); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}

	util.SuccessLog("Enrichment complete in %v", time.Since(start).Round(time.Millisecond))
	util.InfoLog("  Candidates: %d", result.Candidates)
	util.InfoLog("  Enriched: %d", result.Enriched)
	util.InfoLog("  Misses: %d", result.Misses)
	if result.Failed > 0 {
		util.WarnLog("  Failed: %d", result.Failed)
	}
	if result.SkippedAmbiguous > 0 {
		util.WarnLog("  Withheld (ambiguous title): %d", result.SkippedAmbiguous)
	}
	if result.Deadline {
		util.WarnLog("  Deadline cut scheduling short; re-run to continue")
	}

	return nil
}
