package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/util"
)

// Audio extensions the tag reader understands
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".mp4":  true,
	".ogg":  true,
	".wav":  true,
	".aiff": true,
}

// ReadTagFile builds an incoming track record from an audio file's
// embedded tags. The album tag becomes a sibling collection record so
// the import can bind the track.
func ReadTagFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read tags from %s: %v", util.ErrMalformedInput, path, err)
	}

	track := &catalog.Track{
		Title:  m.Title(),
		Artist: m.Artist(),
	}
	if m.Year() > 0 {
		track.ReleaseDate = fmt.Sprintf("%d", m.Year())
	}
	trackNo, _ := m.Track()
	track.TrackNo = trackNo
	if genre := m.Genre(); genre != "" {
		track.StyleTags = []string{genre}
	}

	rec := Record{Kind: KindTrack, Track: track}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s carries no usable tags", util.ErrMalformedInput, path)
	}

	records := []Record{}
	if album := m.Album(); album != "" {
		coll := &catalog.Collection{
			Title:       album,
			Artist:      m.AlbumArtist(),
			ReleaseDate: track.ReleaseDate,
		}
		if coll.Artist == "" {
			coll.Artist = track.Artist
		}
		records = append(records, Record{Kind: KindCollection, Collection: coll})
	}
	return append(records, rec), nil
}

// ReadTagTree walks a directory and reads every audio file it finds.
// Unreadable files are logged and skipped; one broken file never stops
// the walk.
func ReadTagTree(root string) ([]Record, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return ReadTagFile(root)
	}

	var records []Record
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.WarnLog("Skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		recs, err := ReadTagFile(path)
		if err != nil {
			util.WarnLog("Skipping %s: %v", path, err)
			return nil
		}
		records = append(records, recs...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return records, nil
}
