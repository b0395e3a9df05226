// Package resolve decides whether an incoming record refers to an
// entity already in the catalog. Matching is a fixed sequence of named
// strategies, each independently auditable; there is no opaque
// similarity score.
package resolve

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/textkey"
)

// Strategy names, recorded in traces and the event log.
const (
	StrategyUPC         = "upc"
	StrategyDateTitle   = "date+title"
	StrategyTitle       = "title"
	StrategyRef         = "ref"
	StrategyISRC        = "isrc"
	StrategyContainment = "containment"
)

// minContainmentKeyLen guards the containment strategy against trivial
// accidental matches: both normalized keys must be at least this long.
const minContainmentKeyLen = 2

// Trace describes how a resolution was decided, for auditing.
type Trace struct {
	Strategy   string // which strategy produced the match, "" on no match
	Candidates int    // how many candidates that strategy yielded
	TieBreak   bool   // true when more than one candidate had to be broken
	Note       string // human diagnostic, set on tie-breaks
}

// Resolver matches incoming records against a catalog on behalf of one
// import source.
type Resolver struct {
	// Source is the importing source's name, used to look up its native
	// identifiers in existing entities' refs.
	Source string

	// RebindISRC lets an exact-ISRC track match reach across collection
	// boundaries. Only the distribution importer sets this: it migrates
	// tracks that were originally created under the wrong parent.
	RebindISRC bool
}

// ResolveCollection returns the existing collection the incoming record
// should merge into, or nil when it is new. Strategies run in order;
// the first one yielding at least one candidate decides.
func (r *Resolver) ResolveCollection(incoming *catalog.Collection, cat *catalog.Catalog) (*catalog.Collection, Trace) {
	if incoming == nil {
		return nil, Trace{}
	}

	// Strategy 1: exact UPC. Globally unique when present, stop here.
	if incoming.UPC != "" {
		for _, coll := range cat.Collections() {
			if coll.UPC == incoming.UPC {
				return coll, Trace{Strategy: StrategyUPC, Candidates: 1}
			}
		}
	}

	// Strategy 2: release date + normalized title, both present on both
	// sides. A title match against a conflicting date is never accepted.
	titleKey := textkey.Normalize(incoming.Title)
	if titleKey != "" && incoming.ReleaseDate != "" {
		var candidates []*catalog.Collection
		for _, coll := range cat.Collections() {
			if coll.ReleaseDate == incoming.ReleaseDate && textkey.Normalize(coll.Title) == titleKey {
				candidates = append(candidates, coll)
			}
		}
		if match, trace, ok := pickCollection(incoming, candidates, StrategyDateTitle); ok {
			return match, trace
		}
	}

	// Strategy 2b: bare title equality where a date comparison is not
	// possible because one side left the date unset. This is where
	// several candidates with unset dates can collide, hence the
	// tie-break below.
	if titleKey != "" {
		var candidates []*catalog.Collection
		for _, coll := range cat.Collections() {
			if incoming.ReleaseDate != "" && coll.ReleaseDate != "" {
				continue // both dated: strategy 2 territory
			}
			if textkey.Normalize(coll.Title) == titleKey {
				candidates = append(candidates, coll)
			}
		}
		if match, trace, ok := pickCollection(incoming, candidates, StrategyTitle); ok {
			return match, trace
		}
	}

	// Strategy 3: the source's native identifier, recorded in refs by an
	// earlier, metadata-poor import from the same source.
	if r.Source != "" && len(incoming.Refs[r.Source]) > 0 {
		for _, coll := range cat.Collections() {
			for key, val := range incoming.Refs[r.Source] {
				if val != "" && coll.Refs.Get(r.Source, key) == val {
					return coll, Trace{Strategy: StrategyRef, Candidates: 1}
				}
			}
		}
	}

	return nil, Trace{}
}

// pickCollection accepts a single candidate outright and tie-breaks a
// plurality; ok is false when the strategy yielded nothing and the
// resolver should fall through.
func pickCollection(incoming *catalog.Collection, candidates []*catalog.Collection, strategy string) (*catalog.Collection, Trace, bool) {
	switch len(candidates) {
	case 0:
		return nil, Trace{}, false
	case 1:
		return candidates[0], Trace{Strategy: strategy, Candidates: 1}, true
	}
	winner, note := breakCollectionTie(incoming, candidates)
	return winner, Trace{
		Strategy:   strategy,
		Candidates: len(candidates),
		TieBreak:   true,
		Note:       note,
	}, true
}

// breakCollectionTie picks one candidate deterministically: prefer an
// exact trackCount match, then the smallest id. The caller logs the
// trace as a soft warning; a tie here means data quality risk, not an
// error.
func breakCollectionTie(incoming *catalog.Collection, candidates []*catalog.Collection) (*catalog.Collection, string) {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	winner := candidates[0]
	if incoming.TrackCount > 0 {
		for _, c := range candidates {
			if c.TrackCount == incoming.TrackCount {
				winner = c
				break
			}
		}
	}

	var losers []string
	for _, c := range candidates {
		if c.ID == winner.ID {
			continue
		}
		sim := strutil.Similarity(incoming.Title, c.Title, metrics.NewLevenshtein())
		losers = append(losers, fmt.Sprintf("%s (title sim %.2f)", c.ID, sim))
	}
	note := fmt.Sprintf("%d candidates for %q, kept %s over %s",
		len(candidates), incoming.Title, winner.ID, strings.Join(losers, ", "))
	return winner, note
}

// TrackOptions control per-import track resolution policy.
type TrackOptions struct {
	// AllowCreate permits creating a track when nothing matches. True
	// only for the import that first establishes tracks under a
	// previously track-less collection; otherwise every re-import would
	// spawn duplicates.
	AllowCreate bool
}

// ResolveTrack returns the existing track the incoming record should
// merge into, scoped to the given collection. Only the exact-ISRC
// strategy may look beyond the collection, and only when the resolver
// allows rebinding.
func (r *Resolver) ResolveTrack(incoming *catalog.Track, coll *catalog.Collection, cat *catalog.Catalog) (*catalog.Track, Trace) {
	if incoming == nil || coll == nil {
		return nil, Trace{}
	}

	scoped := cat.TracksOf(coll.ID)

	// Strategy 1: exact ISRC.
	if incoming.ISRC != "" {
		for _, t := range scoped {
			if t.ISRC == incoming.ISRC {
				return t, Trace{Strategy: StrategyISRC, Candidates: 1}
			}
		}
		if r.RebindISRC {
			for _, t := range cat.Tracks() {
				if t.ISRC == incoming.ISRC {
					return t, Trace{Strategy: StrategyISRC, Candidates: 1,
						Note: fmt.Sprintf("rebinding from collection %s", t.CollectionID)}
				}
			}
		}
	}

	titleKey := textkey.Normalize(incoming.Title)
	if titleKey == "" {
		return nil, Trace{}
	}

	// Strategy 2: normalized title equality within the collection.
	for _, t := range scoped {
		if textkey.Normalize(t.Title) == titleKey {
			return t, Trace{Strategy: StrategyTitle, Candidates: 1}
		}
	}

	// Strategy 3: conservative containment. Either side may be the
	// longer one ("Song A" vs "Song A (Remix Edit)"), with a minimum
	// key length so one-character keys never match by accident.
	if utf8.RuneCountInString(titleKey) >= minContainmentKeyLen {
		var candidates []*catalog.Track
		for _, t := range scoped {
			key := textkey.Normalize(t.Title)
			if utf8.RuneCountInString(key) < minContainmentKeyLen {
				continue
			}
			if strings.Contains(key, titleKey) || strings.Contains(titleKey, key) {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) == 1 {
			return candidates[0], Trace{Strategy: StrategyContainment, Candidates: 1}
		}
		if len(candidates) > 1 {
			sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
			return candidates[0], Trace{
				Strategy:   StrategyContainment,
				Candidates: len(candidates),
				TieBreak:   true,
				Note:       fmt.Sprintf("%d containment candidates for %q", len(candidates), incoming.Title),
			}
		}
	}

	return nil, Trace{}
}
