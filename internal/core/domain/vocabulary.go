package domain

import (
	"sort"
	"strings"
)

// Vocabulary is the snapshot of distinct metadata values present in the job
// index. It is loaded once, read concurrently by every request, and only
// ever replaced wholesale. Lists are sorted and deduplicated so downstream
// expansions stay deterministic.
type Vocabulary struct {
	Locations        []string `json:"locations"`
	ExperienceLevels []string `json:"experience_levels"`
	WorkTypes        []string `json:"work_types"`
}

// NewVocabulary sorts and deduplicates each list.
func NewVocabulary(locations, experienceLevels, workTypes []string) Vocabulary {
	return Vocabulary{
		Locations:        sortedUnique(locations),
		ExperienceLevels: sortedUnique(experienceLevels),
		WorkTypes:        sortedUnique(workTypes),
	}
}

// IsEmpty reports whether the snapshot holds no values at all. An empty
// vocabulary makes location expansion a no-op.
func (v Vocabulary) IsEmpty() bool {
	return len(v.Locations) == 0 && len(v.ExperienceLevels) == 0 && len(v.WorkTypes) == 0
}

func sortedUnique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
