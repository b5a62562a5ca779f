// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	v1 "github.com/framereview/annotations/internal/storage/memory/export/v1"
)

// Export writes the current bookmarks to the configured output directory.
func (b *Backend) Export() error {
	return b.exportJSON()
}

// LastExportPath returns the file written by the most recent export.
func (b *Backend) LastExportPath() string {
	return b.lastExportPath
}

// exportJSON writes the bookmark data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	now := time.Now()
	export, err := v1.Build(b.cache.All(), now)
	if err != nil {
		return fmt.Errorf("failed to build export: %w", err)
	}

	filename := fmt.Sprintf("bookmarks_%s.json", now.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
