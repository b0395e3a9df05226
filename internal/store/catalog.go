package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/music-catalog/internal/catalog"
)

// Load reads the full catalog into memory. The merge engine works on
// the in-memory catalog and writes it back with Save; the database is
// the durable copy, not the working copy.
func (s *Store) Load() (*catalog.Catalog, error) {
	cat := catalog.New()

	collections, err := s.GetAllCollections()
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	for _, c := range collections {
		cat.PutCollection(c)
	}

	tracks, err := s.GetAllTracks()
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	for _, t := range tracks {
		cat.PutTrack(t)
	}

	return cat, nil
}

// Save writes the full catalog back in a single transaction. Rows whose
// ids are no longer present in the catalog are removed, so the database
// mirrors the in-memory state exactly.
func (s *Store) Save(cat *catalog.Catalog) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if err := s.saveCollections(tx, cat); err != nil {
			return err
		}
		return s.saveTracks(tx, cat)
	})
}

func (s *Store) saveCollections(tx *sql.Tx, cat *catalog.Catalog) error {
	keep := make(map[string]bool)
	for _, c := range cat.Collections() {
		keep[c.ID] = true
		if err := s.UpsertCollection(tx, c); err != nil {
			return err
		}
	}

	stale, err := staleIDs(tx, "collections", keep)
	if err != nil {
		return err
	}
	for _, id := range stale {
		if err := s.DeleteCollection(tx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveTracks(tx *sql.Tx, cat *catalog.Catalog) error {
	keep := make(map[string]bool)
	for _, t := range cat.Tracks() {
		keep[t.ID] = true
		if err := s.UpsertTrack(tx, t); err != nil {
			return err
		}
	}

	stale, err := staleIDs(tx, "tracks", keep)
	if err != nil {
		return err
	}
	for _, id := range stale {
		if err := s.DeleteTrack(tx, id); err != nil {
			return err
		}
	}
	return nil
}

// staleIDs returns ids present in the table but absent from keep
func staleIDs(tx *sql.Tx, table string, keep map[string]bool) ([]string, error) {
	rows, err := tx.Query("SELECT id FROM " + table)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", table, err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	return stale, rows.Err()
}
