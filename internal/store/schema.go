package store

// Schema v1 - Initial database schema.
// Set-valued and structured fields (tags, links, embeds, refs,
// style_tags, inspiration) are stored as JSON text columns; the
// catalog is always loaded whole, so per-field queries are not needed.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Collections (albums, EPs, singles)
CREATE TABLE IF NOT EXISTS collections (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  artist TEXT NOT NULL DEFAULT '',
  release_date TEXT NOT NULL DEFAULT '',
  cover TEXT NOT NULL DEFAULT '',
  track_count INTEGER NOT NULL DEFAULT 0,
  upc TEXT NOT NULL DEFAULT '',
  tags_json TEXT NOT NULL DEFAULT '[]',
  links_json TEXT NOT NULL DEFAULT '[]',
  embeds_json TEXT NOT NULL DEFAULT '[]',
  refs_json TEXT NOT NULL DEFAULT '{}',
  last_update_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Tracks, optionally bound to a collection
CREATE TABLE IF NOT EXISTS tracks (
  id TEXT PRIMARY KEY,
  collection_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  artist TEXT NOT NULL DEFAULT '',
  release_date TEXT NOT NULL DEFAULT '',
  cover TEXT NOT NULL DEFAULT '',
  isrc TEXT NOT NULL DEFAULT '',
  track_no INTEGER NOT NULL DEFAULT 0,
  lyrics TEXT NOT NULL DEFAULT '',
  mood TEXT NOT NULL DEFAULT '',
  duration TEXT NOT NULL DEFAULT '',
  version TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT '',
  tags_json TEXT NOT NULL DEFAULT '[]',
  style_tags_json TEXT NOT NULL DEFAULT '[]',
  inspiration_json TEXT NOT NULL DEFAULT '{}',
  links_json TEXT NOT NULL DEFAULT '[]',
  embeds_json TEXT NOT NULL DEFAULT '[]',
  refs_json TEXT NOT NULL DEFAULT '{}',
  last_update_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Schema v2 - Lookup indexes for identity fields
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_collections_upc ON collections(upc);
CREATE INDEX IF NOT EXISTS idx_tracks_isrc ON tracks(isrc);
CREATE INDEX IF NOT EXISTS idx_tracks_collection_id ON tracks(collection_id);
`
