package retrieval

import (
	"encoding/json"
	"fmt"
	"os"
)

// snapshot is the on-disk form of a built index.
type snapshot struct {
	Documents []Document  `json:"documents"`
	Vectors   [][]float64 `json:"vectors"`
}

// Save writes the built index to path so later runs can skip
// re-embedding the corpus.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	snap := snapshot{Documents: ix.docs, Vectors: ix.vectors}
	ix.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal index snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	return nil
}

// Load replaces the index contents from a snapshot written by Save.
func (ix *Index) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read index snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse index snapshot: %w", err)
	}
	if len(snap.Documents) != len(snap.Vectors) {
		return fmt.Errorf("index snapshot has %d documents but %d vectors",
			len(snap.Documents), len(snap.Vectors))
	}

	ix.mu.Lock()
	ix.docs = snap.Documents
	ix.vectors = snap.Vectors
	ix.mu.Unlock()
	return nil
}
