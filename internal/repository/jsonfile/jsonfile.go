package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Write replaces path with the JSON encoding of v through a sibling temp
// file, so readers never observe a half-written document.
func Write(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
