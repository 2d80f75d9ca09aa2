package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fundfaq/internal/domain"
)

var sourcesHeader = []string{"scheme", "category", "url", "last_verified"}

// WriteRawDocuments dumps the scraped pages as indented JSON.
func WriteRawDocuments(path string, docs []domain.ScrapedDocument) error {
	if docs == nil {
		docs = []domain.ScrapedDocument{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode raw documents: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteSourcesCSV records which pages were scraped and when.
func WriteSourcesCSV(path string, docs []domain.ScrapedDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sourcesHeader); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := w.Write([]string{doc.Scheme, doc.Category, doc.URL, doc.LastVerified}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
