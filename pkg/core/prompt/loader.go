package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFromDirectory registers every *.json template under dir, recursively.
// A file without an explicit ID gets one derived from its relative path,
// "boundary/locate.json" becoming "boundary.locate".
func LoadFromDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("prompt directory not found: %s", dir)
	}

	registry := Get()
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var t Template
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if t.ID == "" {
			t.ID = idFromPath(path, dir)
		}
		return registry.Register(&t)
	})
}

func idFromPath(path, base string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, ".json")
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
}
