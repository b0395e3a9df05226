// Package enrich fills missing track fields from external sources.
// Fetches run concurrently behind a shared rate limit; catalog writes
// go through a single applier so the in-memory catalog never sees
// concurrent mutation.
package enrich

import (
	"context"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/resolve"
	"github.com/franz/music-catalog/internal/textkey"
	"github.com/franz/music-catalog/internal/util"
)

// Options configure one enrichment run
type Options struct {
	// Concurrency bounds the fetch worker pool
	Concurrency int

	// Deadline stops scheduling new fetches once elapsed; in-flight
	// fetches drain. Zero means no deadline.
	Deadline time.Duration

	Logger       *report.EventLogger
	ShowProgress bool
}

// Result tallies one enrichment run
type Result struct {
	Candidates       int
	Enriched         int
	Misses           int
	Failed           int
	SkippedAmbiguous int
	Deadline         bool // true when the deadline cut scheduling short
}

// Enricher fills missing lyrics on catalog tracks from a Source
type Enricher struct {
	cat    *catalog.Catalog
	source Source
	opts   Options
}

// New creates an enricher over the given catalog
func New(cat *catalog.Catalog, source Source, opts Options) *Enricher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Enricher{cat: cat, source: source, opts: opts}
}

// fetchResult carries one worker's outcome to the applier
type fetchResult struct {
	trackID string
	lyrics  string
	err     error
}

// Run enriches every track that is missing lyrics. A fetch failure is
// isolated to its track; the run always reports how far it got.
func (e *Enricher) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	candidates := e.selectCandidates(result)
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		util.InfoLog("No tracks need enrichment")
		return result, nil
	}

	util.InfoLog("Enriching %d tracks from %s", len(candidates), e.source.Name())
	bar := e.newProgressBar(len(candidates))

	var deadline time.Time
	if e.opts.Deadline > 0 {
		deadline = time.Now().Add(e.opts.Deadline)
	}

	results := make(chan fetchResult, e.opts.Concurrency*2)

	// Single applier serializes catalog writes
	applied := make(chan struct{})
	go func() {
		defer close(applied)
		for r := range results {
			e.apply(r, result)
			if bar != nil {
				bar.Add(1)
			}
		}
	}()

	// Workers operate on snapshots; only the applier touches the catalog
	p := pool.New().WithMaxGoroutines(e.opts.Concurrency)
scheduling:
	for _, track := range candidates {
		select {
		case <-ctx.Done():
			break scheduling
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			util.WarnLog("Deadline reached, draining in-flight fetches")
			result.Deadline = true
			break scheduling
		}

		track := track
		p.Go(func() {
			lyrics, err := e.source.FetchLyrics(ctx, track)
			results <- fetchResult{trackID: track.ID, lyrics: lyrics, err: err}
		})
	}

	p.Wait()
	close(results)
	<-applied

	if bar != nil {
		bar.Finish()
	}

	util.SuccessLog("Enrichment complete: %d enriched, %d misses, %d failed, %d withheld",
		result.Enriched, result.Misses, result.Failed, result.SkippedAmbiguous)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// selectCandidates snapshots the tracks that need lyrics and pass the
// ambiguity guard. The lookup an external source answers is keyed by
// title, plus artist when the track has one; the collection binding
// never reaches the wire. Ambiguity is therefore judged on that fetch
// key: a candidate whose key is shared by another catalog track would
// receive the wrong song's lyrics as easily as its own, so it is
// withheld and tallied.
func (e *Enricher) selectCandidates(result *Result) []*catalog.Track {
	guard := resolve.NewGuard(e.cat)

	pairCount := make(map[string]int)
	for _, t := range e.cat.Tracks() {
		if t.Artist != "" && t.Title != "" {
			pairCount[fetchKey(t)]++
		}
	}

	var out []*catalog.Track
	for _, t := range e.cat.Tracks() {
		if t.Lyrics != "" || t.Title == "" {
			continue
		}
		titleKey := textkey.Normalize(t.Title)
		shared := guard.TitleCount(titleKey)
		if t.Artist != "" {
			shared = pairCount[fetchKey(t)]
		}
		if shared > 1 {
			result.SkippedAmbiguous++
			e.opts.Logger.LogAmbiguous("track", titleKey, shared)
			util.WarnLog("Withholding enrichment for %s: lookup key for %q is shared by %d tracks", t.ID, t.Title, shared)
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// fetchKey is the identity a source lookup actually carries for a
// track with a known artist.
func fetchKey(t *catalog.Track) string {
	return textkey.CompositeKey(textkey.Normalize(t.Artist), textkey.Normalize(t.Title))
}

// apply writes one fetch outcome into the catalog (applier goroutine only)
func (e *Enricher) apply(r fetchResult, result *Result) {
	if r.err != nil {
		result.Failed++
		e.opts.Logger.LogEnrich("track", r.trackID, e.source.Name(), r.err)
		util.ErrorLog("Failed to enrich %s: %v", r.trackID, r.err)
		return
	}
	if r.lyrics == "" {
		result.Misses++
		e.opts.Logger.LogEnrich("track", r.trackID, e.source.Name(), nil)
		return
	}

	track := e.cat.Track(r.trackID)
	if track == nil || track.Lyrics != "" {
		// Gone or already filled since scheduling
		result.Misses++
		return
	}

	clone := track.Clone()
	clone.Lyrics = r.lyrics
	e.cat.PutTrack(clone)
	result.Enriched++
	e.opts.Logger.LogEnrich("track", r.trackID, e.source.Name(), nil)
	util.DebugLog("Enriched %s with %d bytes of lyrics", r.trackID, len(r.lyrics))
}

func (e *Enricher) newProgressBar(total int) *progressbar.ProgressBar {
	if !e.opts.ShowProgress || !util.IsTerminal(os.Stdout.Fd()) || util.IsQuiet() {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Enriching"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("tracks"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
