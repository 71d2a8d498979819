package domain

import "strings"

// Intent is the structured reading of what the user asked for. A nil field
// means the user did not state it; an intent field is never the empty
// string. Experience and WorkType only ever hold one of the closed value
// sets below.
type Intent struct {
	Title      *string `json:"title"`
	Location   *string `json:"location"`
	Experience *string `json:"experience"`
	WorkType   *string `json:"work_type"`
	Company    *string `json:"company"`
}

// ExperienceLevels is the closed set of experience filter values the index
// understands, in canonical casing.
var ExperienceLevels = []string{
	"Entry level",
	"Associate",
	"Mid-Senior level",
	"Director",
	"Executive",
	"Internship",
}

// WorkTypes is the closed set of work type filter values, in canonical
// casing.
var WorkTypes = []string{
	"FULL_TIME",
	"CONTRACT",
	"PART_TIME",
	"TEMPORARY",
	"INTERNSHIP",
	"VOLUNTEER",
}

// IsEmpty reports whether every field is unset. The all nil Intent is the
// degraded default when extraction fails or times out.
func (i Intent) IsEmpty() bool {
	return i.Title == nil && i.Location == nil && i.Experience == nil && i.WorkType == nil && i.Company == nil
}

// SanitizeIntent normalizes a raw extractor reply into a valid Intent.
// Blank strings become nil. Experience and WorkType are validated case
// insensitively against the closed sets and rewritten in canonical casing;
// anything outside the sets silently becomes nil rather than an error.
func SanitizeIntent(raw Intent) Intent {
	return Intent{
		Title:      cleanField(raw.Title),
		Location:   cleanField(raw.Location),
		Experience: canonicalValue(raw.Experience, ExperienceLevels),
		WorkType:   canonicalValue(raw.WorkType, WorkTypes),
		Company:    cleanField(raw.Company),
	}
}

func cleanField(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func canonicalValue(v *string, allowed []string) *string {
	cleaned := cleanField(v)
	if cleaned == nil {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(a, *cleaned) {
			canon := a
			return &canon
		}
	}
	return nil
}
