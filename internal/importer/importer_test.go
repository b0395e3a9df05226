package importer

import (
	"errors"
	"testing"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/ingest"
	"github.com/franz/music-catalog/internal/merge"
	"github.com/franz/music-catalog/internal/util"
)

func albumBatch() []ingest.Record {
	return []ingest.Record{
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			Title:       "Spring",
			Artist:      "Someone",
			ReleaseDate: "2024-03-01",
			UPC:         "198001234567",
			TrackCount:  2,
		}},
		{Kind: ingest.KindTrack, Track: &catalog.Track{
			Title: "Intro", ISRC: "QZABC2400001", TrackNo: 1,
		}},
		{Kind: ingest.KindTrack, Track: &catalog.Track{
			Title: "Outro", ISRC: "QZABC2400002", TrackNo: 2,
		}},
	}
}

func TestRunCreatesAlbumAndBindsTracks(t *testing.T) {
	cat := catalog.New()
	im := New(cat, Options{Source: "distrokid", Policy: merge.FillMissing, AllowCreate: true})

	stats, errs := im.Run(albumBatch())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if stats.Created != 3 {
		t.Errorf("expected 3 created, got %d", stats.Created)
	}

	coll := cat.Collection("upc:198001234567")
	if coll == nil {
		t.Fatal("expected collection keyed by upc")
	}
	members := cat.TracksOf(coll.ID)
	if len(members) != 2 {
		t.Fatalf("expected 2 tracks bound to the collection, got %d", len(members))
	}
	if members[0].ID != "isrc:QZABC2400001" || members[0].CollectionID != coll.ID {
		t.Errorf("track not bound via batch context: %+v", members[0])
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cat := catalog.New()
	im := New(cat, Options{Source: "distrokid", Policy: merge.FillMissing, AllowCreate: true})

	if _, errs := im.Run(albumBatch()); len(errs) != 0 {
		t.Fatalf("first run errored: %v", errs)
	}
	stats, errs := im.Run(albumBatch())
	if len(errs) != 0 {
		t.Fatalf("second run errored: %v", errs)
	}

	if stats.Created != 0 {
		t.Errorf("re-import must not create, got %d", stats.Created)
	}
	if stats.Merged != 0 {
		t.Errorf("re-import of identical data must be a no-op, got %d merged", stats.Merged)
	}
	if stats.Unchanged != 3 {
		t.Errorf("expected 3 unchanged, got %d", stats.Unchanged)
	}
	if cat.CountCollections() != 1 || cat.CountTracks() != 2 {
		t.Errorf("catalog grew on re-import: %d/%d", cat.CountCollections(), cat.CountTracks())
	}
}

func TestRunMergesIntoExisting(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{
		ID: "c1", Title: "Spring", ReleaseDate: "2024-03-01",
	})

	im := New(cat, Options{Source: "distrokid", Policy: merge.FillMissing, AllowCreate: true})
	stats, errs := im.Run([]ingest.Record{
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			Title:       "Spring",
			ReleaseDate: "2024-03-01",
			UPC:         "198001234567",
			Cover:       "cover.jpg",
		}},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if stats.Merged != 1 || stats.Created != 0 {
		t.Errorf("expected 1 merge and no creates, got %+v", stats)
	}

	coll := cat.Collection("c1")
	if coll.UPC != "198001234567" || coll.Cover != "cover.jpg" {
		t.Errorf("merge did not fill fields: %+v", coll)
	}
	if cat.CountCollections() != 1 {
		t.Errorf("merge must not create a duplicate, got %d collections", cat.CountCollections())
	}
}

func TestRunConflictOnDivergentStrategies(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{
		ID: "c1", Title: "Spring", ReleaseDate: "2024-03-01", UPC: "198001234567",
	})

	im := New(cat, Options{Source: "distrokid", Policy: merge.FillMissing, AllowCreate: true})
	stats, errs := im.Run([]ingest.Record{
		// Reaches c1 by UPC
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			UPC: "198001234567", Cover: "first.jpg",
		}},
		// Reaches the same entity by date+title: divergent claim, skipped
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			Title: "Spring", ReleaseDate: "2024-03-01", Cover: "late.jpg",
		}},
	})

	if stats.SkippedConflict != 1 {
		t.Errorf("expected 1 conflict skip, got %d", stats.SkippedConflict)
	}
	if len(errs) != 1 || !errors.Is(errs[0], util.ErrConflictingIdentity) {
		t.Errorf("expected ErrConflictingIdentity, got %v", errs)
	}
	if got := cat.Collection("c1").Cover; got != "first.jpg" {
		t.Errorf("expected first claim to win, got cover %q", got)
	}
}

func TestRunSameStrategyReclaimMerges(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring", UPC: "198001234567"})

	im := New(cat, Options{Source: "distrokid", Policy: merge.FillMissing, AllowCreate: true})
	stats, errs := im.Run([]ingest.Record{
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			UPC: "198001234567", Cover: "first.jpg",
		}},
		// Same strategy, complementary fields: not a conflict
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			UPC:   "198001234567",
			Cover: "second.jpg",
			Links: []catalog.Link{{Platform: "spotify", URL: "https://s"}},
		}},
	})

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if stats.SkippedConflict != 0 || stats.Merged != 2 {
		t.Errorf("expected both records merged without conflict, got %+v", stats)
	}
	coll := cat.Collection("c1")
	if coll.Cover != "first.jpg" {
		t.Errorf("fill-missing must keep the first cover, got %q", coll.Cover)
	}
	if len(coll.Links) != 1 || coll.Links[0].URL != "https://s" {
		t.Errorf("complementary link lost: %+v", coll.Links)
	}
}

func TestRunPersistsLinkOnlyMerge(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring", UPC: "198001234567"})

	im := New(cat, Options{Source: "distrokid", Policy: merge.FillMissing, AllowCreate: true})
	stats, errs := im.Run([]ingest.Record{
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			UPC:   "198001234567",
			Links: []catalog.Link{{Platform: "spotify", URL: "https://s"}},
		}},
	})

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if stats.Merged != 1 || stats.Unchanged != 0 {
		t.Errorf("link-only contribution must count as a merge, got %+v", stats)
	}
	if links := cat.Collection("c1").Links; len(links) != 1 || links[0].URL != "https://s" {
		t.Errorf("link contribution dropped: %+v", links)
	}
}

func TestRunNoMatchWithoutCreate(t *testing.T) {
	cat := catalog.New()
	im := New(cat, Options{Source: "distrokid", Policy: merge.FillMissing, AllowCreate: false})

	stats, errs := im.Run([]ingest.Record{
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{Title: "Unknown"}},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if stats.SkippedNoMatch != 1 || cat.CountCollections() != 0 {
		t.Errorf("expected skip without create, got %+v and %d collections", stats, cat.CountCollections())
	}
}

func TestRunIsolatesMalformedRecords(t *testing.T) {
	cat := catalog.New()
	im := New(cat, Options{Source: "distrokid", Policy: merge.FillMissing, AllowCreate: true})

	stats, errs := im.Run([]ingest.Record{
		{Kind: "playlist"}, // unknown kind
		{Kind: ingest.KindTrack, Track: &catalog.Track{Mood: "calm"}}, // no identity
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{Title: "Spring"}},
	})

	if stats.SkippedMalformed != 2 {
		t.Errorf("expected 2 malformed skips, got %d", stats.SkippedMalformed)
	}
	for _, err := range errs {
		if !errors.Is(err, util.ErrMalformedInput) {
			t.Errorf("expected ErrMalformedInput, got %v", err)
		}
	}
	if stats.Created != 1 || cat.CountCollections() != 1 {
		t.Errorf("good record must still apply: %+v", stats)
	}
}

func TestRunRebindsTrackByISRC(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c-wrong", Title: "Placeholder"})
	cat.PutCollection(&catalog.Collection{ID: "c-right", Title: "Spring", UPC: "198001234567"})
	cat.PutTrack(&catalog.Track{
		ID: "t1", Title: "Intro", ISRC: "QZABC2400001", CollectionID: "c-wrong",
	})

	im := New(cat, Options{
		Source: "distrokid", Policy: merge.FillMissing, AllowCreate: true, RebindISRC: true,
	})
	_, errs := im.Run([]ingest.Record{
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{UPC: "198001234567"}},
		{Kind: ingest.KindTrack, Track: &catalog.Track{
			Title: "Intro", ISRC: "QZABC2400001", TrackNo: 1,
		}},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	tr := cat.Track("t1")
	if tr.CollectionID != "c-right" {
		t.Errorf("expected track rebound to c-right, got %q", tr.CollectionID)
	}
	if cat.CountTracks() != 1 {
		t.Errorf("rebind must not duplicate the track, got %d", cat.CountTracks())
	}
}

func TestRunOrphanTrackByISRC(t *testing.T) {
	cat := catalog.New()
	cat.PutTrack(&catalog.Track{ID: "t1", Title: "Loose Song", ISRC: "QZABC2400009"})

	im := New(cat, Options{Source: "suno", Policy: merge.FillMissing, AllowCreate: true})
	stats, errs := im.Run([]ingest.Record{
		{Kind: ingest.KindTrack, Track: &catalog.Track{
			ISRC: "QZABC2400009", Lyrics: "la la",
		}},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if stats.Merged != 1 {
		t.Errorf("expected orphan merge by isrc, got %+v", stats)
	}
	if cat.Track("t1").Lyrics != "la la" {
		t.Error("expected lyrics filled on orphan merge")
	}
}

func TestRunCommutesForDisjointBatches(t *testing.T) {
	a := []ingest.Record{
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			Title: "Spring", UPC: "198001234567",
		}},
	}
	b := []ingest.Record{
		{Kind: ingest.KindCollection, Collection: &catalog.Collection{
			Title: "Winter", UPC: "198007654321",
		}},
	}

	catAB := catalog.New()
	imAB := New(catAB, Options{Source: "x", Policy: merge.FillMissing, AllowCreate: true})
	imAB.Run(a)
	imAB.Run(b)

	catBA := catalog.New()
	imBA := New(catBA, Options{Source: "x", Policy: merge.FillMissing, AllowCreate: true})
	imBA.Run(b)
	imBA.Run(a)

	for _, id := range []string{"upc:198001234567", "upc:198007654321"} {
		x, y := catAB.Collection(id), catBA.Collection(id)
		if x == nil || y == nil {
			t.Fatalf("collection %s missing in one order", id)
		}
		if x.Title != y.Title || x.UPC != y.UPC {
			t.Errorf("order changed outcome for %s: %+v vs %+v", id, x, y)
		}
	}
}
