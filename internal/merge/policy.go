// Package merge applies field-level rules when an incoming record is
// combined into an existing catalog entity.
package merge

import (
	"maps"
	"slices"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/textkey"
)

// Policy selects how a scalar field conflict is resolved.
type Policy int

const (
	// FillMissing uses the incoming value only when the existing value
	// is empty. The default.
	FillMissing Policy = iota

	// Overwrite replaces the existing value whenever the incoming value
	// is non-empty.
	Overwrite
)

func (p Policy) String() string {
	if p == Overwrite {
		return "overwrite"
	}
	return "fill-missing"
}

// mergeString resolves one string field under the active policy.
// Returns the resulting value and whether it changed.
func mergeString(existing, incoming string, p Policy) (string, bool) {
	if incoming == "" || incoming == existing {
		return existing, false
	}
	if existing == "" || p == Overwrite {
		return incoming, true
	}
	return existing, false
}

// mergeTitle resolves a title field. Known "unnamed" placeholder titles
// count as unset: a real incoming title replaces them even under
// fill-missing, and a placeholder never replaces a real title.
func mergeTitle(existing, incoming string, p Policy) (string, bool) {
	if incoming == "" || incoming == existing {
		return existing, false
	}
	if isPlaceholderTitle(incoming) && existing != "" {
		return existing, false
	}
	if existing == "" || isPlaceholderTitle(existing) || p == Overwrite {
		return incoming, true
	}
	return existing, false
}

// isPlaceholderTitle reports whether a title is one of the stand-in
// names sources emit when the real name is unknown.
func isPlaceholderTitle(title string) bool {
	switch textkey.Normalize(title) {
	case "未命名专辑", "未命名", "untitled", "untitled album":
		return true
	}
	return false
}

// mergeRefsField unions incoming refs into *dst and reports whether
// anything new landed. A record contributing only a new ref must still
// count as a change, or the caller would discard the merge.
func mergeRefsField(dst *catalog.Refs, incoming catalog.Refs) bool {
	merged := catalog.MergeRefs(*dst, incoming)
	if refsEqual(*dst, merged) {
		return false
	}
	*dst = merged
	return true
}

func refsEqual(a, b catalog.Refs) bool {
	if len(a) != len(b) {
		return false
	}
	for source, kv := range a {
		if !maps.Equal(kv, b[source]) {
			return false
		}
	}
	return true
}

// mergeInt resolves one numeric field with fill-missing semantics.
func mergeInt(existing, incoming int, p Policy) (int, bool) {
	if incoming == 0 || incoming == existing {
		return existing, false
	}
	if existing == 0 || p == Overwrite {
		return incoming, true
	}
	return existing, false
}

// ApplyCollection merges an incoming collection record into dst.
// dst.ID never changes; the earlier-created id is the canonical one.
// Returns the names of the fields that changed, for the event log.
func ApplyCollection(dst, src *catalog.Collection, p Policy) []string {
	var changed []string
	mark := func(field string, did bool) {
		if did {
			changed = append(changed, field)
		}
	}

	var did bool
	dst.Title, did = mergeTitle(dst.Title, src.Title, p)
	mark("title", did)
	dst.Artist, did = mergeString(dst.Artist, src.Artist, p)
	mark("artist", did)
	dst.ReleaseDate, did = mergeString(dst.ReleaseDate, src.ReleaseDate, p)
	mark("releaseDate", did)
	dst.Cover, did = mergeString(dst.Cover, src.Cover, p)
	mark("cover", did)

	// UPC is first-writer-wins regardless of policy: once set it is a
	// high-confidence identity key and never replaced by a later import.
	if dst.UPC == "" && src.UPC != "" {
		dst.UPC = src.UPC
		mark("upc", true)
	}

	// A track count computed from an authoritative track list beats any
	// stored hint; otherwise the count is a hint and fills missing only.
	if src.AuthoritativeTrackCount && src.TrackCount > 0 && src.TrackCount != dst.TrackCount {
		dst.TrackCount = src.TrackCount
		mark("trackCount", true)
	} else {
		dst.TrackCount, did = mergeInt(dst.TrackCount, src.TrackCount, FillMissing)
		mark("trackCount", did)
	}

	if tags := catalog.UnionStrings(dst.Tags, src.Tags); len(tags) != len(dst.Tags) {
		dst.Tags = tags
		mark("tags", true)
	}
	if len(src.Links) > 0 {
		if merged := catalog.MergeLinks(dst.Links, src.Links); !slices.Equal(dst.Links, merged) {
			dst.Links = merged
			mark("links", true)
		}
	}
	if len(src.Embeds) > 0 {
		if merged := catalog.MergeEmbeds(dst.Embeds, src.Embeds); !slices.Equal(dst.Embeds, merged) {
			dst.Embeds = merged
			mark("embeds", true)
		}
	}
	mark("refs", mergeRefsField(&dst.Refs, src.Refs))

	return changed
}

// ApplyTrack merges an incoming track record into dst. dst.ID never
// changes. The collection binding only fills when missing: rebinding an
// existing track to another collection is an explicit resolver decision,
// not a merge side effect.
func ApplyTrack(dst, src *catalog.Track, p Policy) []string {
	var changed []string
	mark := func(field string, did bool) {
		if did {
			changed = append(changed, field)
		}
	}

	var did bool
	dst.Title, did = mergeTitle(dst.Title, src.Title, p)
	mark("title", did)
	dst.Artist, did = mergeString(dst.Artist, src.Artist, p)
	mark("artist", did)
	dst.ReleaseDate, did = mergeString(dst.ReleaseDate, src.ReleaseDate, p)
	mark("releaseDate", did)
	dst.Cover, did = mergeString(dst.Cover, src.Cover, p)
	mark("cover", did)
	dst.ISRC, did = mergeString(dst.ISRC, src.ISRC, FillMissing)
	mark("isrc", did)
	dst.CollectionID, did = mergeString(dst.CollectionID, src.CollectionID, FillMissing)
	mark("collectionId", did)
	dst.TrackNo, did = mergeInt(dst.TrackNo, src.TrackNo, p)
	mark("trackNo", did)
	dst.Lyrics, did = mergeString(dst.Lyrics, src.Lyrics, p)
	mark("lyrics", did)
	dst.Mood, did = mergeString(dst.Mood, src.Mood, p)
	mark("mood", did)
	dst.Duration, did = mergeString(dst.Duration, src.Duration, p)
	mark("duration", did)
	dst.Version, did = mergeString(dst.Version, src.Version, p)
	mark("version", did)
	dst.CreatedAt, did = mergeString(dst.CreatedAt, src.CreatedAt, FillMissing)
	mark("createdAt", did)

	if tags := catalog.UnionStrings(dst.Tags, src.Tags); len(tags) != len(dst.Tags) {
		dst.Tags = tags
		mark("tags", true)
	}
	if styles := catalog.UnionStrings(dst.StyleTags, src.StyleTags); len(styles) != len(dst.StyleTags) {
		dst.StyleTags = styles
		mark("styleTags", true)
	}
	if len(src.Links) > 0 {
		if merged := catalog.MergeLinks(dst.Links, src.Links); !slices.Equal(dst.Links, merged) {
			dst.Links = merged
			mark("links", true)
		}
	}
	if len(src.Embeds) > 0 {
		if merged := catalog.MergeEmbeds(dst.Embeds, src.Embeds); !slices.Equal(dst.Embeds, merged) {
			dst.Embeds = merged
			mark("embeds", true)
		}
	}
	mark("refs", mergeRefsField(&dst.Refs, src.Refs))

	// Inspiration entries merge key-wise, never clobbering a known value
	if len(src.Inspiration) > 0 {
		if dst.Inspiration == nil {
			dst.Inspiration = make(map[string]string, len(src.Inspiration))
		}
		for k, v := range src.Inspiration {
			if v == "" {
				continue
			}
			if dst.Inspiration[k] == "" {
				dst.Inspiration[k] = v
				mark("inspiration."+k, true)
			} else if p == Overwrite && dst.Inspiration[k] != v {
				dst.Inspiration[k] = v
				mark("inspiration."+k, true)
			}
		}
	}

	return changed
}
