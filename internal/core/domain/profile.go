package domain

import "strings"

// Profile holds the candidate facts pulled out of a resume. Lists keep the
// order in which terms were first seen; duplicates are folded case
// insensitively with the first spelling kept. A Profile is never persisted
// and never mutated after construction.
type Profile struct {
	Roles     []string `json:"roles"`
	Skills    []string `json:"skills"`
	Education []string `json:"education"`
	Locations []string `json:"locations"`
}

// NewProfile builds a Profile, deduplicating every list independently.
func NewProfile(roles, skills, education, locations []string) Profile {
	return Profile{
		Roles:     dedupeFold(roles),
		Skills:    dedupeFold(skills),
		Education: dedupeFold(education),
		Locations: dedupeFold(locations),
	}
}

// IsEmpty reports whether no terms were extracted at all. An empty Profile
// is the degraded default when extraction fails.
func (p Profile) IsEmpty() bool {
	return len(p.Roles) == 0 && len(p.Skills) == 0 && len(p.Education) == 0 && len(p.Locations) == 0
}

// Terms returns every profile term in category order: roles, skills,
// education, locations. Within a category the stored order is kept.
func (p Profile) Terms() []string {
	out := make([]string, 0, len(p.Roles)+len(p.Skills)+len(p.Education)+len(p.Locations))
	out = append(out, p.Roles...)
	out = append(out, p.Skills...)
	out = append(out, p.Education...)
	out = append(out, p.Locations...)
	return out
}

func dedupeFold(values []string) []string {
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
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
