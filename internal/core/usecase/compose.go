package usecase

import (
	"strings"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

// fallbackQuery is embedded when the user gave neither a title intent nor
// any preference text.
const fallbackQuery = "Job Opportunity"

// baseTerm picks the leading query term: the extracted title when present,
// otherwise the raw preference text, otherwise the fixed fallback.
func baseTerm(intent domain.Intent, rawQuery string) string {
	if intent.Title != nil {
		return *intent.Title
	}
	if trimmed := strings.TrimSpace(rawQuery); trimmed != "" {
		return trimmed
	}
	return fallbackQuery
}

// composeQuery builds the weighted query string. With fusion on, profile
// terms follow the base term in category order roles, skills, education,
// locations, each category in its stored order, joined by single spaces.
// There is no weighting syntax and no cross category deduplication; a term
// appearing in two categories appears twice. Whitespace only terms
// contribute nothing. With fusion off the base term stands alone.
func composeQuery(base string, profile domain.Profile, fusion bool) string {
	parts := make([]string, 0, 1+len(profile.Roles)+len(profile.Skills)+len(profile.Education)+len(profile.Locations))
	if trimmed := strings.TrimSpace(base); trimmed != "" {
		parts = append(parts, trimmed)
	}
	if fusion {
		for _, term := range profile.Terms() {
			if trimmed := strings.TrimSpace(term); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
	}
	return strings.Join(parts, " ")
}
