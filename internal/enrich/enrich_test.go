package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/franz/music-catalog/internal/catalog"
)

// fakeSource serves canned lyrics keyed by track id
type fakeSource struct {
	mu      sync.Mutex
	lyrics  map[string]string
	fail    map[string]error
	fetched []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchLyrics(_ context.Context, track *catalog.Track) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, track.ID)
	f.mu.Unlock()

	if err := f.fail[track.ID]; err != nil {
		return "", err
	}
	return f.lyrics[track.ID], nil
}

func TestRunEnrichesMissingLyrics(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring"})
	cat.PutTrack(&catalog.Track{ID: "t1", Title: "Intro", CollectionID: "c1"})
	cat.PutTrack(&catalog.Track{ID: "t2", Title: "Outro", CollectionID: "c1", Lyrics: "already here"})

	src := &fakeSource{lyrics: map[string]string{"t1": "new words"}}
	e := New(cat, src, Options{Concurrency: 2})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Candidates != 1 || result.Enriched != 1 {
		t.Errorf("expected 1 candidate enriched, got %+v", result)
	}
	if got := cat.Track("t1").Lyrics; got != "new words" {
		t.Errorf("expected lyrics applied, got %q", got)
	}
	if got := cat.Track("t2").Lyrics; got != "already here" {
		t.Errorf("track with lyrics must be untouched, got %q", got)
	}
	if len(src.fetched) != 1 || src.fetched[0] != "t1" {
		t.Errorf("expected only t1 fetched, got %v", src.fetched)
	}
}

func TestRunIsolatesFetchFailures(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring"})
	cat.PutTrack(&catalog.Track{ID: "t1", Title: "Intro", CollectionID: "c1"})
	cat.PutTrack(&catalog.Track{ID: "t2", Title: "Outro", CollectionID: "c1"})

	src := &fakeSource{
		lyrics: map[string]string{"t2": "survivor"},
		fail:   map[string]error{"t1": errors.New("connection reset")},
	}
	e := New(cat, src, Options{Concurrency: 2})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Failed != 1 || result.Enriched != 1 {
		t.Errorf("expected one failure and one success, got %+v", result)
	}
	if cat.Track("t2").Lyrics != "survivor" {
		t.Error("failure on t1 must not block t2")
	}
	if cat.Track("t1").Lyrics != "" {
		t.Error("failed track must stay unchanged")
	}
}

func TestRunWithholdsAmbiguousTitles(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring"})
	cat.PutCollection(&catalog.Collection{ID: "c2", Title: "Winter"})
	// The same bare title in two unrelated collections: the lookup
	// carries no collection binding, so both are withheld.
	cat.PutTrack(&catalog.Track{ID: "t1", Title: "Intro", CollectionID: "c1"})
	cat.PutTrack(&catalog.Track{ID: "t2", Title: "intro!", CollectionID: "c2"})
	// The same title again, but the artist reaches the lookup: safe.
	cat.PutTrack(&catalog.Track{ID: "t3", Title: "Intro", Artist: "Someone", CollectionID: "c1"})

	src := &fakeSource{lyrics: map[string]string{
		"t1": "wrong song words", "t2": "wrong song words", "t3": "safe",
	}}
	e := New(cat, src, Options{Concurrency: 2})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.SkippedAmbiguous != 2 {
		t.Errorf("expected 2 withheld, got %+v", result)
	}
	if cat.Track("t1").Lyrics != "" || cat.Track("t2").Lyrics != "" {
		t.Errorf("ambiguous titles must not be enriched: t1=%q t2=%q",
			cat.Track("t1").Lyrics, cat.Track("t2").Lyrics)
	}
	if cat.Track("t3").Lyrics != "safe" {
		t.Error("artist-disambiguated track must still be enriched")
	}
}

func TestRunWithholdsSharedArtistTitlePair(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring"})
	cat.PutCollection(&catalog.Collection{ID: "c2", Title: "Winter"})
	// Same artist and title in two collections: the lookup cannot tell
	// them apart even with the artist.
	cat.PutTrack(&catalog.Track{ID: "t1", Title: "Intro", Artist: "Someone", CollectionID: "c1"})
	cat.PutTrack(&catalog.Track{ID: "t2", Title: "Intro", Artist: "Someone", CollectionID: "c2"})

	src := &fakeSource{lyrics: map[string]string{"t1": "words", "t2": "words"}}
	e := New(cat, src, Options{Concurrency: 2})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.SkippedAmbiguous != 2 || result.Enriched != 0 {
		t.Errorf("expected both withheld, got %+v", result)
	}
}

func TestRunCountsMisses(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring"})
	cat.PutTrack(&catalog.Track{ID: "t1", Title: "Instrumental Jam", CollectionID: "c1"})

	src := &fakeSource{} // knows nothing
	e := New(cat, src, Options{Concurrency: 1})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Misses != 1 || result.Enriched != 0 {
		t.Errorf("expected one miss, got %+v", result)
	}
}

func TestRunAppliesAllUnderConcurrency(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring"})

	src := &fakeSource{lyrics: map[string]string{}}
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("t%02d", i)
		cat.PutTrack(&catalog.Track{
			ID: id, Title: fmt.Sprintf("Song %02d", i), CollectionID: "c1",
		})
		src.lyrics[id] = "words " + id
	}

	e := New(cat, src, Options{Concurrency: 8})
	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Enriched != 50 {
		t.Fatalf("expected all 50 enriched, got %+v", result)
	}
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("t%02d", i)
		if want := "words " + id; cat.Track(id).Lyrics != want {
			t.Errorf("track %s got %q", id, cat.Track(id).Lyrics)
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cat := catalog.New()
	cat.PutCollection(&catalog.Collection{ID: "c1", Title: "Spring"})
	cat.PutTrack(&catalog.Track{ID: "t1", Title: "Intro", CollectionID: "c1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{lyrics: map[string]string{"t1": "words"}}
	e := New(cat, src, Options{Concurrency: 1})

	_, err := e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
