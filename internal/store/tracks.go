package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/franz/music-catalog/internal/catalog"
)

// UpsertTrack writes a track row, replacing any existing row with the
// same id.
func (s *Store) UpsertTrack(tx *sql.Tx, t *catalog.Track) error {
	tags, err := json.Marshal(orEmptySlice(t.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	styleTags, err := json.Marshal(orEmptySlice(t.StyleTags))
	if err != nil {
		return fmt.Errorf("failed to encode style tags: %w", err)
	}
	inspiration, err := json.Marshal(orEmptyMap(t.Inspiration))
	if err != nil {
		return fmt.Errorf("failed to encode inspiration: %w", err)
	}
	links, err := json.Marshal(orEmptyLinks(t.Links))
	if err != nil {
		return fmt.Errorf("failed to encode links: %w", err)
	}
	embeds, err := json.Marshal(orEmptyEmbeds(t.Embeds))
	if err != nil {
		return fmt.Errorf("failed to encode embeds: %w", err)
	}
	refs, err := json.Marshal(orEmptyRefs(t.Refs))
	if err != nil {
		return fmt.Errorf("failed to encode refs: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO tracks (id, collection_id, title, artist, release_date,
			cover, isrc, track_no, lyrics, mood, duration, version, created_at,
			tags_json, style_tags_json, inspiration_json, links_json,
			embeds_json, refs_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection_id = excluded.collection_id,
			title = excluded.title,
			artist = excluded.artist,
			release_date = excluded.release_date,
			cover = excluded.cover,
			isrc = excluded.isrc,
			track_no = excluded.track_no,
			lyrics = excluded.lyrics,
			mood = excluded.mood,
			duration = excluded.duration,
			version = excluded.version,
			created_at = excluded.created_at,
			tags_json = excluded.tags_json,
			style_tags_json = excluded.style_tags_json,
			inspiration_json = excluded.inspiration_json,
			links_json = excluded.links_json,
			embeds_json = excluded.embeds_json,
			refs_json = excluded.refs_json,
			last_update_at = CURRENT_TIMESTAMP
	`, t.ID, t.CollectionID, t.Title, t.Artist, t.ReleaseDate,
		t.Cover, t.ISRC, t.TrackNo, t.Lyrics, t.Mood, t.Duration, t.Version, t.CreatedAt,
		string(tags), string(styleTags), string(inspiration), string(links),
		string(embeds), string(refs))

	if err != nil {
		return fmt.Errorf("failed to upsert track %s: %w", t.ID, err)
	}
	return nil
}

// GetAllTracks retrieves every track ordered by id
func (s *Store) GetAllTracks() ([]*catalog.Track, error) {
	rows, err := s.db.Query(`
		SELECT id, collection_id, title, artist, release_date, cover, isrc,
		       track_no, lyrics, mood, duration, version, created_at,
		       tags_json, style_tags_json, inspiration_json, links_json,
		       embeds_json, refs_json
		FROM tracks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*catalog.Track
	for rows.Next() {
		t := &catalog.Track{}
		var tags, styleTags, inspiration, links, embeds, refs string
		err := rows.Scan(
			&t.ID, &t.CollectionID, &t.Title, &t.Artist, &t.ReleaseDate,
			&t.Cover, &t.ISRC, &t.TrackNo, &t.Lyrics, &t.Mood, &t.Duration,
			&t.Version, &t.CreatedAt,
			&tags, &styleTags, &inspiration, &links, &embeds, &refs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		if err := decodeJSON(t.ID, tags, &t.Tags); err != nil {
			return nil, err
		}
		if err := decodeJSON(t.ID, styleTags, &t.StyleTags); err != nil {
			return nil, err
		}
		if err := decodeJSON(t.ID, inspiration, &t.Inspiration); err != nil {
			return nil, err
		}
		if err := decodeJSON(t.ID, links, &t.Links); err != nil {
			return nil, err
		}
		if err := decodeJSON(t.ID, embeds, &t.Embeds); err != nil {
			return nil, err
		}
		if err := decodeJSON(t.ID, refs, &t.Refs); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

// DeleteTrack removes a track row by id
func (s *Store) DeleteTrack(tx *sql.Tx, id string) error {
	if _, err := tx.Exec("DELETE FROM tracks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete track %s: %w", id, err)
	}
	return nil
}

// CountTracks returns the number of stored tracks
func (s *Store) CountTracks() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}
