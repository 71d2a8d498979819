package usecase

import (
	"strings"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

// resolveLocations expands a stated location into the index locations it
// plausibly names. Matching is case insensitive substring containment in
// either direction; no alias or abbreviation inference happens, so "nyc"
// never matches "New York, NY". The result preserves the vocabulary's
// sorted order and is always a subset of it.
func resolveLocations(stated *string, vocab domain.Vocabulary) []string {
	if stated == nil {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(*stated))
	if needle == "" {
		return nil
	}

	var out []string
	for _, known := range vocab.Locations {
		candidate := strings.ToLower(known)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			out = append(out, known)
		}
	}
	return out
}
