package storage

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mindnoscape/web-app/src/pkg/model"
)

// FileFormat infers the format from a file name's extension, defaulting to JSON.
func FileFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		return "xml"
	case ".svg":
		return "svg"
	case ".png":
		return "png"
	default:
		return "json"
	}
}

// FileExport exports a mind map to a file in the specified format (JSON or XML).
// Ownership and timestamps are server concerns and are not written.
func FileExport(mindmap model.Mindmap, filename string, format string) error {
	doc := mindmap.Clone()
	doc.Owner = ""

	var data []byte
	var err error
	switch format {
	case "json":
		data, err = json.MarshalIndent(doc, "", "  ")
	case "xml":
		data, err = xml.MarshalIndent(doc, "", "  ")
		data = append([]byte(xml.Header), data...)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal mindmap: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FileImport imports a mind map from a file in the specified format (JSON or XML).
func FileImport(filename string, format string) (*model.Mindmap, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var imported model.Mindmap
	switch format {
	case "json":
		err = json.Unmarshal(data, &imported)
	case "xml":
		err = xml.Unmarshal(data, &imported)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return &imported, nil
}
