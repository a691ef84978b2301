package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/scenesmith/internal/format"
)

// Document is one source text plus its catalog metadata. Immutable once
// loaded.
type Document struct {
	ID             string
	Title          string
	Author         string
	Genre          string
	Text           string
	FormatOverride format.Format
}

// Metadata is a catalog entry describing a document.
type Metadata struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Genre  string `yaml:"genre"`
	Format string `yaml:"format,omitempty"`
}

// Catalog maps document identifiers to their metadata.
type Catalog map[string]Metadata

// LoadCatalog reads a YAML catalog file mapping document id to metadata.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	return catalog, nil
}

// LoadDocuments pairs <id>.txt files under dir with catalog entries.
// A file whose id is missing from the catalog is skipped with a logged
// warning rather than failing the load. Documents are returned in
// lexical id order so batch processing order is stable.
func LoadDocuments(dir string, catalog Catalog, logger *slog.Logger) ([]Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading document directory: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".txt")
		meta, ok := catalog[id]
		if !ok {
			logger.Warn("document missing from metadata catalog, skipping",
				"document_id", id,
				"file", entry.Name())
			continue
		}

		text, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading document %s: %w", id, err)
		}

		docs = append(docs, Document{
			ID:             id,
			Title:          meta.Title,
			Author:         meta.Author,
			Genre:          meta.Genre,
			Text:           string(text),
			FormatOverride: format.Parse(meta.Format),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	logger.Info("corpus loaded",
		"directory", dir,
		"documents", len(docs),
		"catalog_entries", len(catalog))

	return docs, nil
}
