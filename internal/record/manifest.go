package record

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ManifestEntry describes one written frame.
type ManifestEntry struct {
	Index       int     `json:"index"`
	Time        float64 `json:"time"`
	Orientation string  `json:"orientation"`
	State       string  `json:"state"`
	Progress    float64 `json:"progress"`
	Image       string  `json:"image"`
}

// Manifest is the index of a recording, written as manifest.json.
type Manifest struct {
	Engine string          `json:"engine"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	FPS    float64         `json:"fps"`
	Script string          `json:"script"`
	Format Format          `json:"format"`
	Frames []ManifestEntry `json:"frames"`
}

// AddResults appends the successful results in frame order.
func (m *Manifest) AddResults(results []Result) {
	sorted := append([]Result(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	for _, r := range sorted {
		if r.Err != nil {
			continue
		}
		m.Frames = append(m.Frames, ManifestEntry{
			Index:       r.Index,
			Time:        r.Time,
			Orientation: r.Orientation.String(),
			State:       r.State.String(),
			Progress:    r.Progress,
			Image:       r.File,
		})
	}
}

// WriteManifest writes m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("record: write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("record: read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("record: parse manifest %s: %w", path, err)
	}
	return m, nil
}
