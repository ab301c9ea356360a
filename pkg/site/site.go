// Package site reads and writes the links.json crawl snapshot.
package site

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/xhad/sitegraph/internal/models"
)

// DefaultPath is where the crawler writes and the server reads by default.
const DefaultPath = "links.json"

// ErrNoData is returned when the snapshot file does not exist.
var ErrNoData = errors.New("no crawl data")

// Load reads a site structure from path. An empty JSON object is not an
// error; callers decide how to present it.
func Load(path string) (models.SiteStructure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrNoData, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses a links.json payload.
func Decode(data []byte) (models.SiteStructure, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return models.SiteStructure{}, nil
	}

	var structure models.SiteStructure
	if err := json.Unmarshal(data, &structure); err != nil {
		return nil, fmt.Errorf("could not decode crawl data: %w", err)
	}
	if structure == nil {
		structure = models.SiteStructure{}
	}
	return structure, nil
}

// Save writes the structure as indented JSON. The file is replaced atomically
// so a watching server never reads a half-written snapshot.
func Save(path string, structure models.SiteStructure) error {
	if structure == nil {
		structure = models.SiteStructure{}
	}
	data, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode crawl data: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".links-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write crawl data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write crawl data: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
