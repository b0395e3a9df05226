package catalog

// Link is an outbound platform link for an entity.
// URL may be legitimately empty: a platform indicator without a
// clickable target.
type Link struct {
	Platform string `json:"platform"`
	Label    string `json:"label,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Embed is a playable resource for an entity. A track with at least one
// embed is playable in-product on that platform.
type Embed struct {
	Platform string `json:"platform"`
	Label    string `json:"label,omitempty"`
	URL      string `json:"url"`
	Height   int    `json:"height,omitempty"`
}

// Refs maps a source name to that source's native identifiers,
// e.g. {"distrokid": {"albumuuid": "..."}}.
type Refs map[string]map[string]string

// Get returns a ref value, or "" when the source or key is unknown.
func (r Refs) Get(source, key string) string {
	if r == nil {
		return ""
	}
	return r[source][key]
}

// Set records a ref value, allocating maps as needed.
func (r *Refs) Set(source, key, value string) {
	if value == "" {
		return
	}
	if *r == nil {
		*r = make(Refs)
	}
	if (*r)[source] == nil {
		(*r)[source] = make(map[string]string)
	}
	(*r)[source][key] = value
}

// Collection is an album, playlist or compilation.
// ID is globally unique and immutable once created; merging never
// changes it.
type Collection struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Cover       string   `json:"cover,omitempty"`
	TrackCount  int      `json:"trackCount,omitempty"`
	UPC         string   `json:"upc,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Links       []Link   `json:"links,omitempty"`
	Embeds      []Embed  `json:"embeds,omitempty"`
	Refs        Refs     `json:"refs,omitempty"`

	// AuthoritativeTrackCount marks a TrackCount computed from an
	// attached track list rather than a source hint. Only meaningful on
	// incoming records; a derived count always wins on merge.
	AuthoritativeTrackCount bool `json:"-"`
}

// Track is a single song. A track belongs to exactly one collection, or
// none while orphaned.
type Track struct {
	ID           string            `json:"id"`
	Title        string            `json:"title,omitempty"`
	Artist       string            `json:"artist,omitempty"`
	ReleaseDate  string            `json:"releaseDate,omitempty"`
	Cover        string            `json:"cover,omitempty"`
	CollectionID string            `json:"collectionId,omitempty"`
	ISRC         string            `json:"isrc,omitempty"`
	TrackNo      int               `json:"trackNo,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Links        []Link            `json:"links,omitempty"`
	Embeds       []Embed           `json:"embeds,omitempty"`
	Refs         Refs              `json:"refs,omitempty"`
	Lyrics       string            `json:"lyrics,omitempty"`
	Mood         string            `json:"mood,omitempty"`
	StyleTags    []string          `json:"styleTags,omitempty"`
	Inspiration  map[string]string `json:"inspiration,omitempty"`
	Duration     string            `json:"duration,omitempty"`
	Version      string            `json:"version,omitempty"`
	CreatedAt    string            `json:"createdAt,omitempty"`
}

// Clone returns a deep copy of the collection. Merges mutate a clone and
// swap it in whole, so a failed merge never leaves a half-updated entity.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	out.Links = append([]Link(nil), c.Links...)
	out.Embeds = append([]Embed(nil), c.Embeds...)
	out.Refs = c.Refs.clone()
	return &out
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	out := *t
	out.Tags = append([]string(nil), t.Tags...)
	out.Links = append([]Link(nil), t.Links...)
	out.Embeds = append([]Embed(nil), t.Embeds...)
	out.Refs = t.Refs.clone()
	out.StyleTags = append([]string(nil), t.StyleTags...)
	if t.Inspiration != nil {
		out.Inspiration = make(map[string]string, len(t.Inspiration))
		for k, v := range t.Inspiration {
			out.Inspiration[k] = v
		}
	}
	return &out
}

func (r Refs) clone() Refs {
	if r == nil {
		return nil
	}
	out := make(Refs, len(r))
	for source, kv := range r {
		m := make(map[string]string, len(kv))
		for k, v := range kv {
			m[k] = v
		}
		out[source] = m
	}
	return out
}

// UnionStrings merges two string sets, preserving the order of first
// appearance. Used for tags and style tags, which are additive by nature.
func UnionStrings(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, s := range existing {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, s := range incoming {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// MergeRefs unions incoming refs into existing ones, fill-missing per key.
func MergeRefs(existing, incoming Refs) Refs {
	if len(incoming) == 0 {
		return existing
	}
	out := existing.clone()
	for source, kv := range incoming {
		for k, v := range kv {
			if v == "" {
				continue
			}
			if out.Get(source, k) == "" {
				out.Set(source, k, v)
			}
		}
	}
	return out
}
