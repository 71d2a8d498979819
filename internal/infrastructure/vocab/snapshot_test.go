package vocab

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "metadata_cache.json")
	snapshot := NewSnapshot(path)

	vocab := domain.NewVocabulary(
		[]string{"New York, NY", "Boston, MA"},
		[]string{"Entry level"},
		[]string{"FULL_TIME", "CONTRACT"},
	)
	if err := snapshot.Write(context.Background(), vocab); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := snapshot.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, vocab) {
		t.Fatalf("Load() = %+v, want %+v", got, vocab)
	}
}

func TestSnapshotFileShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata_cache.json")
	snapshot := NewSnapshot(path)

	vocab := domain.NewVocabulary([]string{"Austin, TX"}, []string{"Director"}, []string{"PART_TIME"})
	if err := snapshot.Write(context.Background(), vocab); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var decoded map[string][]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal file: %v", err)
	}
	for _, key := range []string{"locations", "experience_levels", "work_types"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("snapshot missing %q key: %v", key, decoded)
		}
	}
}

func TestSnapshotLoadSortsAndDedupes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata_cache.json")
	raw := `{"locations": ["Boston, MA", "Austin, TX", "Boston, MA"], "experience_levels": [], "work_types": ["FULL_TIME"]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	got, err := NewSnapshot(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := []string{"Austin, TX", "Boston, MA"}; !reflect.DeepEqual(got.Locations, want) {
		t.Fatalf("Locations = %v, want %v", got.Locations, want)
	}
}

func TestSnapshotLoadMissingFile(t *testing.T) {
	snapshot := NewSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := snapshot.Load(context.Background()); err == nil {
		t.Fatal("Load() error = nil, want read failure")
	}
}

func TestSnapshotLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := NewSnapshot(path).Load(context.Background()); err == nil {
		t.Fatal("Load() error = nil, want parse failure")
	}
}
