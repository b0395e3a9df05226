// Package export serializes the full catalog as a single JSON document
// for the presentation layer. The document uses the same record shape
// as the import side, so an export can round-trip through an import.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/music-catalog/internal/catalog"
)

// Document is the full persisted catalog
type Document struct {
	GeneratedAt time.Time             `json:"generatedAt"`
	Collections []*catalog.Collection `json:"collections"`
	Tracks      []*catalog.Track      `json:"tracks"`
}

// Build assembles the export document. Entities are sorted by id so the
// output is stable across runs with the same catalog state.
func Build(cat *catalog.Catalog) *Document {
	return &Document{
		GeneratedAt: time.Now().UTC(),
		Collections: cat.Collections(),
		Tracks:      cat.Tracks(),
	}
}

// Write serializes the document to the given writer, indented for
// human-diffable output.
func Write(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return nil
}

// WriteFile exports the catalog to a file, creating parent directories
// as needed. The file is written atomically via a temp file rename so a
// crash cannot leave a truncated document behind.
func WriteFile(cat *catalog.Catalog, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(Build(cat), tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
