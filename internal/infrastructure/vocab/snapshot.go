package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

// Snapshot reads and writes the vocabulary artifact as a JSON file. Writes
// go through a temp file and rename so a concurrent reader never sees a
// half-written snapshot.
type Snapshot struct {
	path string
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

func (s *Snapshot) Load(_ context.Context) (domain.Vocabulary, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Vocabulary{}, fmt.Errorf("read vocabulary snapshot: %w", err)
	}

	var decoded domain.Vocabulary
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.Vocabulary{}, fmt.Errorf("parse vocabulary snapshot: %w", err)
	}
	return domain.NewVocabulary(decoded.Locations, decoded.ExperienceLevels, decoded.WorkTypes), nil
}

func (s *Snapshot) Write(_ context.Context, vocab domain.Vocabulary) error {
	raw, err := json.MarshalIndent(vocab, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vocabulary snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vocab-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
