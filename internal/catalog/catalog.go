package catalog

import (
	"sort"
)

// Catalog is the in-memory store of all known collections and tracks.
// It is an explicit handle passed into every resolver and merge call;
// there is no ambient singleton. The catalog itself is not safe for
// concurrent mutation: the merge engine is single-threaded and callers
// serialize writes.
type Catalog struct {
	collections map[string]*Collection
	tracks      map[string]*Track

	// byCollection indexes track ids by owning collection id
	byCollection map[string]map[string]bool
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		collections:  make(map[string]*Collection),
		tracks:       make(map[string]*Track),
		byCollection: make(map[string]map[string]bool),
	}
}

// Collection returns the collection with the given id, or nil.
func (c *Catalog) Collection(id string) *Collection {
	return c.collections[id]
}

// Track returns the track with the given id, or nil.
func (c *Catalog) Track(id string) *Track {
	return c.tracks[id]
}

// Collections returns all collections ordered by id.
func (c *Catalog) Collections() []*Collection {
	out := make([]*Collection, 0, len(c.collections))
	for _, coll := range c.collections {
		out = append(out, coll)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tracks returns all tracks ordered by id.
func (c *Catalog) Tracks() []*Track {
	out := make([]*Track, 0, len(c.tracks))
	for _, t := range c.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TracksOf returns the tracks belonging to a collection, ordered by
// track number, then id.
func (c *Catalog) TracksOf(collectionID string) []*Track {
	ids := c.byCollection[collectionID]
	out := make([]*Track, 0, len(ids))
	for id := range ids {
		out = append(out, c.tracks[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TrackNo != out[j].TrackNo {
			return out[i].TrackNo < out[j].TrackNo
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PutCollection stores a collection, replacing any previous entity with
// the same id in one step. The caller passes a fully merged record; the
// catalog never exposes a half-updated entity.
func (c *Catalog) PutCollection(coll *Collection) {
	if coll == nil || coll.ID == "" {
		return
	}
	c.collections[coll.ID] = coll.Clone()
}

// PutTrack stores a track, replacing any previous entity with the same
// id and maintaining the collection index (tracks may be rebound to a
// different collection by an ISRC match).
func (c *Catalog) PutTrack(t *Track) {
	if t == nil || t.ID == "" {
		return
	}
	if prev := c.tracks[t.ID]; prev != nil && prev.CollectionID != t.CollectionID {
		delete(c.byCollection[prev.CollectionID], t.ID)
	}
	c.tracks[t.ID] = t.Clone()
	if t.CollectionID != "" {
		if c.byCollection[t.CollectionID] == nil {
			c.byCollection[t.CollectionID] = make(map[string]bool)
		}
		c.byCollection[t.CollectionID][t.ID] = true
	}
}

// CountCollections returns the number of collections in the catalog.
func (c *Catalog) CountCollections() int {
	return len(c.collections)
}

// CountTracks returns the number of tracks in the catalog.
func (c *Catalog) CountTracks() int {
	return len(c.tracks)
}
