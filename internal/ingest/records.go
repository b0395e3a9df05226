package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/util"
)

// RecordKind discriminates the tagged record variants in a batch
type RecordKind string

const (
	KindCollection RecordKind = "collection"
	KindTrack      RecordKind = "track"
)

// Record is one incoming batch entry. Exactly one of Collection or
// Track is set, selected by Kind.
type Record struct {
	Kind       RecordKind          `json:"kind"`
	Collection *catalog.Collection `json:"collection,omitempty"`
	Track      *catalog.Track      `json:"track,omitempty"`
}

// Batch is a decoded input file: an ordered list of records from one
// source.
type Batch struct {
	Source  string   `json:"source,omitempty"`
	Records []Record `json:"records"`
}

// DecodeBatch reads a JSON batch document. Decoding errors reject the
// whole document; per-record validation is deferred to Validate so a
// single bad record cannot poison the batch.
func DecodeBatch(r io.Reader) (*Batch, error) {
	var b Batch
	dec := json.NewDecoder(r)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedInput, err)
	}
	return &b, nil
}

// Validate checks a record for the minimum it needs to be processed: a
// known kind, the matching payload, and at least one piece of identity
// material (id, content code, title, or source ref).
func (rec *Record) Validate() error {
	switch rec.Kind {
	case KindCollection:
		if rec.Collection == nil {
			return fmt.Errorf("%w: collection record without payload", util.ErrMalformedInput)
		}
		c := rec.Collection
		if c.ID == "" && c.UPC == "" && c.Title == "" && len(c.Refs) == 0 {
			return fmt.Errorf("%w: collection record carries no identity", util.ErrMalformedInput)
		}
	case KindTrack:
		if rec.Track == nil {
			return fmt.Errorf("%w: track record without payload", util.ErrMalformedInput)
		}
		t := rec.Track
		if t.ID == "" && t.ISRC == "" && t.Title == "" && len(t.Refs) == 0 {
			return fmt.Errorf("%w: track record carries no identity", util.ErrMalformedInput)
		}
	default:
		return fmt.Errorf("%w: unknown record kind %q", util.ErrMalformedInput, rec.Kind)
	}
	return nil
}

// DeriveCollectionID assigns an id to a collection record that arrived
// without one. Content codes are preferred, then a source-native ref,
// then a fresh UUID. The id is immutable after this point.
func DeriveCollectionID(c *catalog.Collection, source string) string {
	if c.ID != "" {
		return c.ID
	}
	if c.UPC != "" {
		c.ID = "upc:" + c.UPC
		return c.ID
	}
	if source != "" {
		if native := firstRef(c.Refs, source); native != "" {
			c.ID = source + ":" + native
			return c.ID
		}
	}
	c.ID = uuid.NewString()
	return c.ID
}

// DeriveTrackID assigns an id to a track record that arrived without one
func DeriveTrackID(t *catalog.Track, source string) string {
	if t.ID != "" {
		return t.ID
	}
	if t.ISRC != "" {
		t.ID = "isrc:" + t.ISRC
		return t.ID
	}
	if source != "" {
		if native := firstRef(t.Refs, source); native != "" {
			t.ID = source + ":" + native
			return t.ID
		}
	}
	t.ID = uuid.NewString()
	return t.ID
}

// firstRef returns the lexically smallest ref value for a source, so id
// derivation is deterministic regardless of map iteration order.
func firstRef(r catalog.Refs, source string) string {
	kv := r[source]
	if len(kv) == 0 {
		return ""
	}
	var bestKey, best string
	for k, v := range kv {
		if v == "" {
			continue
		}
		if best == "" || k < bestKey {
			bestKey, best = k, v
		}
	}
	return best
}
