package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/franz/music-catalog/internal/catalog"
)

// UpsertCollection writes a collection row, replacing any existing row
// with the same id. The whole entity is written in one statement.
func (s *Store) UpsertCollection(tx *sql.Tx, c *catalog.Collection) error {
	tags, err := json.Marshal(orEmptySlice(c.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	links, err := json.Marshal(orEmptyLinks(c.Links))
	if err != nil {
		return fmt.Errorf("failed to encode links: %w", err)
	}
	embeds, err := json.Marshal(orEmptyEmbeds(c.Embeds))
	if err != nil {
		return fmt.Errorf("failed to encode embeds: %w", err)
	}
	refs, err := json.Marshal(orEmptyRefs(c.Refs))
	if err != nil {
		return fmt.Errorf("failed to encode refs: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO collections (id, title, artist, release_date, cover,
			track_count, upc, tags_json, links_json, embeds_json, refs_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			release_date = excluded.release_date,
			cover = excluded.cover,
			track_count = excluded.track_count,
			upc = excluded.upc,
			tags_json = excluded.tags_json,
			links_json = excluded.links_json,
			embeds_json = excluded.embeds_json,
			refs_json = excluded.refs_json,
			last_update_at = CURRENT_TIMESTAMP
	`, c.ID, c.Title, c.Artist, c.ReleaseDate, c.Cover,
		c.TrackCount, c.UPC, string(tags), string(links), string(embeds), string(refs))

	if err != nil {
		return fmt.Errorf("failed to upsert collection %s: %w", c.ID, err)
	}
	return nil
}

// GetAllCollections retrieves every collection ordered by id
func (s *Store) GetAllCollections() ([]*catalog.Collection, error) {
	rows, err := s.db.Query(`
		SELECT id, title, artist, release_date, cover, track_count, upc,
		       tags_json, links_json, embeds_json, refs_json
		FROM collections
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var collections []*catalog.Collection
	for rows.Next() {
		c := &catalog.Collection{}
		var tags, links, embeds, refs string
		err := rows.Scan(
			&c.ID, &c.Title, &c.Artist, &c.ReleaseDate, &c.Cover,
			&c.TrackCount, &c.UPC, &tags, &links, &embeds, &refs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		if err := decodeJSON(c.ID, tags, &c.Tags); err != nil {
			return nil, err
		}
		if err := decodeJSON(c.ID, links, &c.Links); err != nil {
			return nil, err
		}
		if err := decodeJSON(c.ID, embeds, &c.Embeds); err != nil {
			return nil, err
		}
		if err := decodeJSON(c.ID, refs, &c.Refs); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}

	return collections, rows.Err()
}

// DeleteCollection removes a collection row by id
func (s *Store) DeleteCollection(tx *sql.Tx, id string) error {
	if _, err := tx.Exec("DELETE FROM collections WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", id, err)
	}
	return nil
}

// CountCollections returns the number of stored collections
func (s *Store) CountCollections() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM collections").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count collections: %w", err)
	}
	return count, nil
}

// decodeJSON unmarshals a JSON column into its target; an empty column
// leaves the target at its zero value.
func decodeJSON(id, text string, dst any) error {
	if text == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return fmt.Errorf("failed to decode stored field for %s: %w", id, err)
	}
	return nil
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyLinks(l []catalog.Link) []catalog.Link {
	if l == nil {
		return []catalog.Link{}
	}
	return l
}

func orEmptyEmbeds(e []catalog.Embed) []catalog.Embed {
	if e == nil {
		return []catalog.Embed{}
	}
	return e
}

func orEmptyRefs(r catalog.Refs) catalog.Refs {
	if r == nil {
		return catalog.Refs{}
	}
	return r
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
