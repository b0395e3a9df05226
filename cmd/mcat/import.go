package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/franz/music-catalog/internal/importer"
	"github.com/franz/music-catalog/internal/ingest"
	"github.com/franz/music-catalog/internal/merge"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import [batch.json ...]",
	Short: "Import metadata batches into the catalog",
	Long: `Import one or more JSON batch files into the catalog.

Each record is matched against existing entities by explicit identity
strategies (UPC, release date + title, source refs for collections;
ISRC, title, containment for tracks). Matches merge field by field
under the chosen policy; unmatched records create new entities when
--allow-create is set.

With --from-audio, incoming track records are built from the embedded
tags of local audio files instead of JSON batches.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("source", "", "name of the importing source (required)")
	importCmd.Flags().Bool("allow-create", false, "create entities when nothing matches")
	importCmd.Flags().Bool("overwrite", false, "incoming values overwrite existing ones (default: fill missing only)")
	importCmd.Flags().Bool("rebind-isrc", false, "let exact-ISRC matches move tracks between collections")
	importCmd.Flags().String("from-audio", "", "read track records from audio file tags under this path")
	importCmd.MarkFlagRequired("source")
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging()

	source, _ := cmd.Flags().GetString("source")
	allowCreate, _ := cmd.Flags().GetBool("allow-create")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	rebindISRC, _ := cmd.Flags().GetBool("rebind-isrc")
	fromAudio, _ := cmd.Flags().GetString("from-audio")

	if fromAudio == "" && len(args) == 0 {
		return fmt.Errorf("nothing to import: pass batch files or --from-audio")
	}

	policy := merge.FillMissing
	if overwrite {
		policy = merge.Overwrite
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := db.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	util.InfoLog("Catalog: %d collections, %d tracks", cat.CountCollections(), cat.CountTracks())

	logger := newEventLogger()
	defer logger.Close()

	im := importer.New(cat, importer.Options{
		Source:       source,
		Policy:       policy,
		AllowCreate:  allowCreate,
		RebindISRC:   rebindISRC,
		Logger:       logger,
		ShowProgress: true,
	})

	start := time.Now()
	total := &report.RunStats{}
	var allErrs []error

	if fromAudio != "" {
		records, err := ingest.ReadTagTree(fromAudio)
		if err != nil {
			return fmt.Errorf("failed to read audio tags: %w", err)
		}
		util.InfoLog("Read %d records from audio tags under %s", len(records), fromAudio)
		stats, errs := im.Run(records)
		total.Add(stats)
		allErrs = append(allErrs, errs...)
	}

	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open batch %s: %w", path, err)
		}
		batch, err := ingest.DecodeBatch(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to decode batch %s: %w", path, err)
		}
		if batch.Source != "" && batch.Source != source {
			util.WarnLog("Batch %s declares source %q, importing as %q", path, batch.Source, source)
		}

		util.InfoLog("Importing %s (%d records)", path, len(batch.Records))
		stats, errs := im.Run(batch.Records)
		total.Add(stats)
		allErrs = append(allErrs, errs...)
	}

	if err := db.Save(cat); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}

	duration := time.Since(start)
	util.SuccessLog("Import complete in %v", duration.Round(time.Millisecond))
	util.InfoLog("  Records seen: %d", total.RecordsSeen)
	util.InfoLog("  Created: %d", total.Created)
	util.InfoLog("  Merged: %d", total.Merged)
	if total.Unchanged > 0 {
		util.InfoLog("  Unchanged: %d", total.Unchanged)
	}
	if total.SkippedMalformed > 0 {
		util.WarnLog("  Skipped (malformed): %d", total.SkippedMalformed)
	}
	if total.SkippedConflict > 0 {
		util.WarnLog("  Skipped (conflicting claim): %d", total.SkippedConflict)
	}
	if total.SkippedNoMatch > 0 {
		util.WarnLog("  Skipped (no match, create disabled): %d", total.SkippedNoMatch)
	}
	if total.TieBreaks > 0 {
		util.WarnLog("  Tie-breaks: %d (see event log)", total.TieBreaks)
	}

	return nil
}
