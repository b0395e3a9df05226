package resolve

import (
	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/textkey"
)

// Guard detects when a bare normalized-title match is unsafe. Lyric and
// metadata enrichment pipelines often have nothing but a title to go
// on; when the same title exists in more than one unrelated collection,
// applying such a match would silently enrich the wrong song. The guard
// withholds those matches so they can be tallied instead of applied.
//
// A guard is an index snapshot: build it once per batch against the
// catalog state the batch runs over.
type Guard struct {
	byTitle     map[string][]*catalog.Track
	byComposite map[string][]*catalog.Track
}

// NewGuard indexes every track in the catalog by bare title key and by
// collection-scoped composite key.
func NewGuard(cat *catalog.Catalog) *Guard {
	g := &Guard{
		byTitle:     make(map[string][]*catalog.Track),
		byComposite: make(map[string][]*catalog.Track),
	}

	collectionKeys := make(map[string]string)
	for _, coll := range cat.Collections() {
		collectionKeys[coll.ID] = textkey.Normalize(coll.Title)
	}

	for _, t := range cat.Tracks() {
		key := textkey.Normalize(t.Title)
		if key == "" {
			continue
		}
		g.byTitle[key] = append(g.byTitle[key], t)

		if ck := collectionKeys[t.CollectionID]; ck != "" {
			composite := textkey.CompositeKey(ck, key)
			g.byComposite[composite] = append(g.byComposite[composite], t)
		}
	}

	return g
}

// IsAmbiguous reports whether more than one distinct track in the
// entire catalog shares the given bare title key. The empty key is
// never ambiguous; it simply matches nothing.
func (g *Guard) IsAmbiguous(key string) bool {
	return len(g.byTitle[key]) > 1
}

// FindByTitle returns the single track with the given bare title key,
// or nil when the key is unknown or ambiguous.
func (g *Guard) FindByTitle(key string) *catalog.Track {
	if key == "" {
		return nil
	}
	if tracks := g.byTitle[key]; len(tracks) == 1 {
		return tracks[0]
	}
	return nil
}

// FindByComposite resolves a collection-scoped composite key. When it
// is available and unambiguous it always takes precedence over the
// bare title key.
func (g *Guard) FindByComposite(collectionKey, trackKey string) *catalog.Track {
	composite := textkey.CompositeKey(collectionKey, trackKey)
	if composite == "" {
		return nil
	}
	if tracks := g.byComposite[composite]; len(tracks) == 1 {
		return tracks[0]
	}
	return nil
}

// TitleCount returns how many tracks share the given bare title key.
func (g *Guard) TitleCount(key string) int {
	return len(g.byTitle[key])
}
