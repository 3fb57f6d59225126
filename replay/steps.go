// Package replay persists the session's step records: one append-only
// entry per executed tool call, holding the rendered transcript and any
// captured image. Records are an audit artifact; the engine never reads
// them back.
package replay

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Record is the externally observable trace of one step.
type Record struct {
	ID    string          `json:"id"`
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input,omitempty"`
	Text  string          `json:"text"`
	Image string          `json:"image,omitempty"` // base64-encoded PNG
	Time  time.Time       `json:"time"`
}

// Load reads step records from path. A missing file yields nil records
// and no error, so a fresh session needs no special casing.
func Load(path string) ([]Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var recs []Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Save writes step records to path, replacing any previous content.
func Save(path string, recs []Record) error {
	b, err := json.MarshalIndent(recs, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
