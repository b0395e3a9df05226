// Package importer runs the batch import pipeline: validate each
// record, resolve it against the catalog, merge or create, and tally
// the outcome. A single bad record never aborts the batch.
package importer

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/ingest"
	"github.com/franz/music-catalog/internal/merge"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/resolve"
	"github.com/franz/music-catalog/internal/util"
)

// Options configure one import run
type Options struct {
	// Source names the importing source; it scopes ref lookups and the
	// ids derived for new entities.
	Source string

	// Policy decides how matched fields merge (fill-missing or overwrite)
	Policy merge.Policy

	// AllowCreate permits creating entities when nothing matches.
	// Without it an unmatched record is skipped and tallied.
	AllowCreate bool

	// RebindISRC lets an exact-ISRC track match reach across collection
	// boundaries (distribution imports only).
	RebindISRC bool

	Logger       *report.EventLogger
	ShowProgress bool
}

// Importer applies batches of incoming records to a catalog
type Importer struct {
	cat      *catalog.Catalog
	resolver *resolve.Resolver
	opts     Options
}

// New creates an importer over the given catalog
func New(cat *catalog.Catalog, opts Options) *Importer {
	return &Importer{
		cat: cat,
		resolver: &resolve.Resolver{
			Source:     opts.Source,
			RebindISRC: opts.RebindISRC,
		},
		opts: opts,
	}
}

// Run processes a batch in order. Collection records establish a
// binding context for the track records that follow them, so an
// album-then-tracks batch binds without explicit collection ids.
// Returns the run tallies and the per-record errors that were isolated.
func (im *Importer) Run(records []ingest.Record) (*report.RunStats, []error) {
	stats := &report.RunStats{}
	var errs []error

	// Entities claimed by a record in this batch, keyed to the strategy
	// that reached them. A later record reaching the same entity through
	// a different strategy is a conflicting identity claim: the first
	// wins, the later one is skipped. Re-claims through the same
	// strategy carry complementary data and merge normally.
	claimed := make(map[string]string)

	bar := im.newProgressBar(len(records))

	var contextCollectionID string
	for i := range records {
		rec := &records[i]
		stats.RecordsSeen++

		if err := rec.Validate(); err != nil {
			stats.SkippedMalformed++
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			im.opts.Logger.LogSkip(string(rec.Kind), im.opts.Source, err.Error())
			util.DebugLog("Skipping record %d: %v", i, err)
			im.step(bar)
			continue
		}

		switch rec.Kind {
		case ingest.KindCollection:
			if id := im.applyCollection(rec.Collection, claimed, stats, &errs); id != "" {
				contextCollectionID = id
			}
		case ingest.KindTrack:
			im.applyTrack(rec.Track, contextCollectionID, claimed, stats, &errs)
		}
		im.step(bar)
	}

	im.finish(bar)
	return stats, errs
}

// claimCreate marks an entity created by this batch in the claim table.
const claimCreate = "create"

// applyCollection resolves and applies one collection record, returning
// the id it landed on ("" when skipped).
func (im *Importer) applyCollection(incoming *catalog.Collection, claimed map[string]string, stats *report.RunStats, errs *[]error) string {
	existing, trace := im.resolver.ResolveCollection(incoming, im.cat)
	if trace.TieBreak {
		stats.TieBreaks++
		util.WarnLog("Tie-break (%s): %s", trace.Strategy, trace.Note)
		id := ""
		if existing != nil {
			id = existing.ID
		}
		im.opts.Logger.LogTieBreak("collection", id, trace.Strategy, trace.Note)
	}

	if existing == nil {
		if !im.opts.AllowCreate {
			stats.SkippedNoMatch++
			im.opts.Logger.LogSkip("collection", im.opts.Source, "no match and create not allowed")
			return ""
		}
		id := ingest.DeriveCollectionID(incoming, im.opts.Source)
		im.cat.PutCollection(incoming)
		claimed["collection:"+id] = claimCreate
		stats.Created++
		im.opts.Logger.LogCreate("collection", id, im.opts.Source)
		util.DebugLog("Created collection %s (%s)", id, incoming.Title)
		return id
	}

	key := "collection:" + existing.ID
	if prev, seen := claimed[key]; seen && prev != trace.Strategy {
		stats.SkippedConflict++
		err := fmt.Errorf("%w: collection %s claimed via %s after %s", util.ErrConflictingIdentity, existing.ID, trace.Strategy, prev)
		*errs = append(*errs, err)
		im.opts.Logger.LogConflict("collection", existing.ID, im.opts.Source,
			fmt.Sprintf("claimed via %s after %s", trace.Strategy, prev))
		util.WarnLog("Conflict: collection %s claimed via %s after %s, keeping first", existing.ID, trace.Strategy, prev)
		return existing.ID
	}
	claimed[key] = trace.Strategy

	clone := existing.Clone()
	fields := merge.ApplyCollection(clone, incoming, im.opts.Policy)
	if len(fields) == 0 {
		stats.Unchanged++
		im.opts.Logger.LogMerge("collection", existing.ID, im.opts.Source, trace.Strategy, nil)
		return existing.ID
	}
	im.cat.PutCollection(clone)
	stats.Merged++
	im.opts.Logger.LogMerge("collection", existing.ID, im.opts.Source, trace.Strategy, fields)
	util.DebugLog("Merged collection %s via %s: %v", existing.ID, trace.Strategy, fields)
	return existing.ID
}

// applyTrack resolves and applies one track record. A record without an
// explicit collection binding inherits the batch's current collection
// context.
func (im *Importer) applyTrack(incoming *catalog.Track, contextCollectionID string, claimed map[string]string, stats *report.RunStats, errs *[]error) {
	coll := im.parentCollection(incoming, contextCollectionID)

	var existing *catalog.Track
	var trace resolve.Trace
	if coll != nil {
		existing, trace = im.resolver.ResolveTrack(incoming, coll, im.cat)
	} else {
		existing, trace = im.resolveOrphan(incoming)
	}

	if trace.TieBreak {
		stats.TieBreaks++
		util.WarnLog("Tie-break (%s): %s", trace.Strategy, trace.Note)
		id := ""
		if existing != nil {
			id = existing.ID
		}
		im.opts.Logger.LogTieBreak("track", id, trace.Strategy, trace.Note)
	}

	if existing == nil {
		if !im.opts.AllowCreate {
			stats.SkippedNoMatch++
			im.opts.Logger.LogSkip("track", im.opts.Source, "no match and create not allowed")
			return
		}
		if incoming.CollectionID == "" && coll != nil {
			incoming.CollectionID = coll.ID
		}
		id := ingest.DeriveTrackID(incoming, im.opts.Source)
		im.cat.PutTrack(incoming)
		claimed["track:"+id] = claimCreate
		stats.Created++
		im.opts.Logger.LogCreate("track", id, im.opts.Source)
		util.DebugLog("Created track %s (%s)", id, incoming.Title)
		return
	}

	key := "track:" + existing.ID
	if prev, seen := claimed[key]; seen && prev != trace.Strategy {
		stats.SkippedConflict++
		err := fmt.Errorf("%w: track %s claimed via %s after %s", util.ErrConflictingIdentity, existing.ID, trace.Strategy, prev)
		*errs = append(*errs, err)
		im.opts.Logger.LogConflict("track", existing.ID, im.opts.Source,
			fmt.Sprintf("claimed via %s after %s", trace.Strategy, prev))
		util.WarnLog("Conflict: track %s claimed via %s after %s, keeping first", existing.ID, trace.Strategy, prev)
		return
	}
	claimed[key] = trace.Strategy

	clone := existing.Clone()
	// An ISRC rebind moves the track under the incoming record's parent;
	// it is the one case where merging changes the binding.
	if im.opts.RebindISRC && trace.Strategy == resolve.StrategyISRC && coll != nil && clone.CollectionID != coll.ID {
		util.InfoLog("Rebinding track %s: %s -> %s", clone.ID, clone.CollectionID, coll.ID)
		clone.CollectionID = coll.ID
	}
	fields := merge.ApplyTrack(clone, incoming, im.opts.Policy)
	if len(fields) == 0 && clone.CollectionID == existing.CollectionID {
		stats.Unchanged++
		im.opts.Logger.LogMerge("track", existing.ID, im.opts.Source, trace.Strategy, nil)
		return
	}
	im.cat.PutTrack(clone)
	stats.Merged++
	im.opts.Logger.LogMerge("track", existing.ID, im.opts.Source, trace.Strategy, fields)
	util.DebugLog("Merged track %s via %s: %v", existing.ID, trace.Strategy, fields)
}

// parentCollection finds the collection a track record binds to:
// explicit id first, then the batch context.
func (im *Importer) parentCollection(incoming *catalog.Track, contextCollectionID string) *catalog.Collection {
	if incoming.CollectionID != "" {
		return im.cat.Collection(incoming.CollectionID)
	}
	if contextCollectionID != "" {
		return im.cat.Collection(contextCollectionID)
	}
	return nil
}

// resolveOrphan matches a track that has no collection to scope the
// search. Only exact identity (id or ISRC) is trusted here; title
// strategies without a collection scope would guess.
func (im *Importer) resolveOrphan(incoming *catalog.Track) (*catalog.Track, resolve.Trace) {
	if incoming.ID != "" {
		if t := im.cat.Track(incoming.ID); t != nil {
			return t, resolve.Trace{Strategy: "id", Candidates: 1}
		}
	}
	if incoming.ISRC != "" {
		for _, t := range im.cat.Tracks() {
			if t.ISRC == incoming.ISRC {
				return t, resolve.Trace{Strategy: resolve.StrategyISRC, Candidates: 1}
			}
		}
	}
	return nil, resolve.Trace{}
}

func (im *Importer) newProgressBar(total int) *progressbar.ProgressBar {
	if !im.opts.ShowProgress || !util.IsTerminal(os.Stdout.Fd()) || util.IsQuiet() {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (im *Importer) step(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Add(1)
	}
}

func (im *Importer) finish(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}
