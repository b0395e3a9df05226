package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
)

// RunStats tallies one import or enrichment run
type RunStats struct {
	RecordsSeen      int
	Created          int
	Merged           int
	Unchanged        int
	SkippedMalformed int
	SkippedConflict  int
	SkippedAmbiguous int
	SkippedNoMatch   int
	TieBreaks        int
	Errors           int
}

// Add accumulates another run's tallies into this one
func (s *RunStats) Add(other *RunStats) {
	s.RecordsSeen += other.RecordsSeen
	s.Created += other.Created
	s.Merged += other.Merged
	s.Unchanged += other.Unchanged
	s.SkippedMalformed += other.SkippedMalformed
	s.SkippedConflict += other.SkippedConflict
	s.SkippedAmbiguous += other.SkippedAmbiguous
	s.SkippedNoMatch += other.SkippedNoMatch
	s.TieBreaks += other.TieBreaks
	s.Errors += other.Errors
}

// SummaryReport represents a complete summary report
type SummaryReport struct {
	GeneratedAt time.Time
	Duration    time.Duration

	// Catalog totals
	Collections int
	Tracks      int
	OrphanCount int

	// Run tallies
	Stats RunStats

	// Details
	TopErrors []ErrorSummary

	// Metadata
	Source       string
	DatabasePath string
	EventLogPath string
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// GenerateSummaryReport creates a summary report from the store and run tallies
func GenerateSummaryReport(db *store.Store, stats *RunStats, errs []error) (*SummaryReport, error) {
	rep := &SummaryReport{
		GeneratedAt: time.Now(),
		TopErrors:   make([]ErrorSummary, 0),
	}
	if stats != nil {
		rep.Stats = *stats
	}

	var err error
	rep.Collections, err = db.CountCollections()
	if err != nil {
		return nil, fmt.Errorf("failed to count collections: %w", err)
	}
	rep.Tracks, err = db.CountTracks()
	if err != nil {
		return nil, fmt.Errorf("failed to count tracks: %w", err)
	}

	rep.TopErrors = gatherTopErrors(errs, 10)
	return rep, nil
}

// gatherTopErrors collapses identical error messages and keeps the most common
func gatherTopErrors(errs []error, limit int) []ErrorSummary {
	counts := make(map[string]int)
	for _, err := range errs {
		if err != nil {
			counts[err.Error()]++
		}
	}

	out := make([]ErrorSummary, 0, len(counts))
	for msg, count := range counts {
		out = append(out, ErrorSummary{Error: msg, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Error < out[j].Error
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(rep *SummaryReport, outputPath string) error {
	// Create output directory
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	// Header
	md.WriteString("# Music Catalog - Run Summary\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05")))

	if rep.Source != "" {
		md.WriteString(fmt.Sprintf("**Source:** `%s`\n\n", rep.Source))
	}
	if rep.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", rep.DatabasePath))
	}
	if rep.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", rep.EventLogPath))
	}

	md.WriteString("---\n\n")

	// Catalog totals
	md.WriteString("## 📚 Catalog\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Collections | %s |\n", util.FormatCount(rep.Collections)))
	md.WriteString(fmt.Sprintf("| Tracks | %s |\n", util.FormatCount(rep.Tracks)))
	if rep.OrphanCount > 0 {
		md.WriteString(fmt.Sprintf("| Orphan Tracks | %s |\n", util.FormatCount(rep.OrphanCount)))
	}
	md.WriteString("\n")

	// Run tallies
	s := rep.Stats
	if s.RecordsSeen > 0 {
		md.WriteString("## 🔀 Import\n\n")
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Records Seen | %s |\n", util.FormatCount(s.RecordsSeen)))
		md.WriteString(fmt.Sprintf("| Created | %s |\n", util.FormatCount(s.Created)))
		md.WriteString(fmt.Sprintf("| Merged | %s |\n", util.FormatCount(s.Merged)))
		if s.Unchanged > 0 {
			md.WriteString(fmt.Sprintf("| Unchanged | %s |\n", util.FormatCount(s.Unchanged)))
		}
		if s.SkippedMalformed > 0 {
			md.WriteString(fmt.Sprintf("| Skipped (malformed) | %s |\n", util.FormatCount(s.SkippedMalformed)))
		}
		if s.SkippedConflict > 0 {
			md.WriteString(fmt.Sprintf("| Skipped (conflicting claim) | %s |\n", util.FormatCount(s.SkippedConflict)))
		}
		if s.SkippedAmbiguous > 0 {
			md.WriteString(fmt.Sprintf("| Withheld (ambiguous title) | %s |\n", util.FormatCount(s.SkippedAmbiguous)))
		}
		if s.SkippedNoMatch > 0 {
			md.WriteString(fmt.Sprintf("| Skipped (no match, create disabled) | %s |\n", util.FormatCount(s.SkippedNoMatch)))
		}
		if s.TieBreaks > 0 {
			md.WriteString(fmt.Sprintf("| Tie-breaks | %s |\n", util.FormatCount(s.TieBreaks)))
		}
		if s.Errors > 0 {
			md.WriteString(fmt.Sprintf("| Errors | %s |\n", util.FormatCount(s.Errors)))
		}
		if rep.Duration > 0 {
			md.WriteString(fmt.Sprintf("| Duration | %s |\n", rep.Duration.Round(time.Second)))
		}
		md.WriteString("\n")
	}

	// Errors
	if len(rep.TopErrors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, e := range rep.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", e.Count, e.Error))
		}
		md.WriteString("\n")
	}

	// Footer
	md.WriteString("---\n\n")
	md.WriteString("*Generated by mcat - Music Catalog*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
