package store

import (
	"encoding/json"
	"fmt"
	"os"

	"bookchunk/internal/models"
)

// WriteJSON serializes chunks to path as indented UTF-8 JSON. HTML
// escaping is turned off so non-ASCII text and markup characters
// survive verbatim.
func WriteJSON(path string, chunks []models.Chunk) error {
	if chunks == nil {
		chunks = []models.Chunk{}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(chunks); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
