package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/store"
)

func TestGenerateSummaryReport(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring"})
	cat.PutTrack(&catalog.Track{ID: "t1", Title: "Intro", CollectionID: "c1"})
	cat.PutTrack(&catalog.Track{ID: "t2", Title: "Outro", CollectionID: "c1"})
	if err := db.Save(cat); err != nil {
		t.Fatalf("failed to save catalog: %v", err)
	}

	stats := &RunStats{RecordsSeen: 5, Created: 3, Merged: 1, SkippedMalformed: 1}
	errs := []error{
		errors.New("record carries no identity"),
		errors.New("record carries no identity"),
		errors.New("something else"),
	}

	rep, err := GenerateSummaryReport(db, stats, errs)
	if err != nil {
		t.Fatalf("failed to generate report: %v", err)
	}

	if rep.Collections != 1 || rep.Tracks != 2 {
		t.Errorf("expected 1 collection and 2 tracks, got %d/%d", rep.Collections, rep.Tracks)
	}
	if rep.Stats.Created != 3 {
		t.Errorf("expected stats carried over, got %+v", rep.Stats)
	}
	if len(rep.TopErrors) != 2 {
		t.Fatalf("expected 2 distinct errors, got %d", len(rep.TopErrors))
	}
	if rep.TopErrors[0].Count != 2 || rep.TopErrors[0].Error != "record carries no identity" {
		t.Errorf("expected most common error first, got %+v", rep.TopErrors[0])
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	rep := &SummaryReport{
		Collections: 12,
		Tracks:      80,
		Stats: RunStats{
			RecordsSeen:      100,
			Created:          20,
			Merged:           70,
			SkippedMalformed: 5,
			SkippedAmbiguous: 2,
			TieBreaks:        1,
		},
		Source:       "distrokid",
		DatabasePath: "/tmp/catalog.db",
		TopErrors:    []ErrorSummary{{Error: "boom", Count: 3}},
	}

	path := filepath.Join(t.TempDir(), "reports", "summary.md")
	if err := WriteMarkdownReport(rep, path); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"# Music Catalog - Run Summary",
		"| Collections | 12 |",
		"| Tracks | 80 |",
		"| Records Seen | 100 |",
		"| Withheld (ambiguous title) | 2 |",
		"| Tie-breaks | 1 |",
		"| 3 | boom |",
		"`distrokid`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected report to contain %q", want)
		}
	}
}

func TestRunStatsAdd(t *testing.T) {
	a := &RunStats{RecordsSeen: 10, Created: 2, Merged: 7, Errors: 1}
	b := &RunStats{RecordsSeen: 5, Created: 1, Merged: 4, SkippedConflict: 1}
	a.Add(b)

	if a.RecordsSeen != 15 || a.Created != 3 || a.Merged != 11 {
		t.Errorf("tallies wrong after add: %+v", a)
	}
	if a.SkippedConflict != 1 || a.Errors != 1 {
		t.Errorf("tallies wrong after add: %+v", a)
	}
}
