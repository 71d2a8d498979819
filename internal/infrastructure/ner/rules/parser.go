package rules

import (
	"context"
	"regexp"
	"strings"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

const (
	maxRoles  = 20
	maxSkills = 50
)

// Extractor parses resume text with section and pattern rules, fully in
// process.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractProfile(_ context.Context, text string) (domain.Profile, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Profile{}, nil
	}

	sections := findSections(text)
	roles := uniqueFold(rolesFromExperience(sections[sectionExperience]), 2, maxRoles)
	skills := uniqueFold(skillsFromSection(sections[sectionSkills]), 2, maxSkills)
	education := uniqueFold(educationPhrases(sections[sectionEducation]), 3, 0)
	locations := uniqueFold(locationsFromText(text), 2, 0)

	return domain.NewProfile(roles, skills, education, locations), nil
}

const (
	sectionExperience = "experience"
	sectionEducation  = "education"
	sectionSkills     = "skills"
	sectionOther      = "other"
)

// sectionHeaders maps recognized resume headings to a canonical section,
// longest heading first so "work experience" wins over "experience".
var sectionHeaders = []struct {
	header  string
	section string
}{
	{"professional experience", sectionExperience},
	{"core competencies", sectionSkills},
	{"technical skills", sectionSkills},
	{"work experience", sectionExperience},
	{"accomplishments", sectionOther},
	{"qualifications", sectionEducation},
	{"certifications", sectionOther},
	{"employment", sectionExperience},
	{"experience", sectionExperience},
	{"education", sectionEducation},
	{"objective", sectionOther},
	{"academic", sectionEducation},
	{"training", sectionEducation},
	{"projects", sectionOther},
	{"summary", sectionOther},
	{"skills", sectionSkills},
}

// findSections splits resume text into canonical sections. Lines before the
// first recognized heading belong to no section and are dropped.
func findSections(text string) map[string][]string {
	sections := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if section, rest, ok := matchHeader(stripped); ok {
			current = section
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], stripped)
		}
	}
	return sections
}

func matchHeader(line string) (section, rest string, ok bool) {
	lower := strings.ToLower(line)
	for _, h := range sectionHeaders {
		switch {
		case lower == h.header:
			return h.section, "", true
		case strings.HasPrefix(lower, h.header+":"), strings.HasPrefix(lower, h.header+" "):
			rest = strings.TrimSpace(strings.TrimLeft(line[len(h.header):], ": "))
			return h.section, rest, true
		}
	}
	return "", "", false
}

var (
	dateRangeStart = regexp.MustCompile(`(?i)^(?:\d{1,2}[/-])?\d{1,2}[/-]\d{2,4}\s+(?:to|–|-)\s+`)
	dateOnlyLine   = regexp.MustCompile(`(?i)^(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\w+\s+\d{4}|\d{4})\s*$`)
)

var companyIndicators = []string{"company name", "inc.", " inc", " llc", " ltd", "co.", " co ", " co", " — ", "city", "state"}

var roleSeparators = []string{" at ", " to ", " – ", " - ", " — "}

var bulletVerbs = []string{"built", "led", "managed", "developed", "designed", "created"}

// rolesFromExperience keeps the experience lines that look like a job title:
// not a date, not a company line, not a bullet sentence, short enough.
func rolesFromExperience(lines []string) []string {
	roles := make([]string, 0, len(lines))
	for _, line := range lines {
		if dateRangeStart.MatchString(line) || dateOnlyLine.MatchString(line) {
			continue
		}
		if containsAny(strings.ToLower(line), companyIndicators) {
			continue
		}
		for _, sep := range roleSeparators {
			if i := strings.Index(line, sep); i >= 0 {
				line = strings.TrimSpace(line[:i])
				break
			}
		}
		if len(line) > 45 || strings.HasSuffix(line, ".") {
			continue
		}
		if hasAnyPrefix(strings.ToLower(line), bulletVerbs) {
			continue
		}
		if n := len(line); n < 2 || n > 60 {
			continue
		}
		if allDigits(line) {
			continue
		}
		roles = append(roles, line)
	}
	return roles
}

var skillSplitter = regexp.MustCompile(`[,;\n•‣◦*]\s*`)

func skillsFromSection(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	raw := skillSplitter.Split(strings.Join(lines, "\n"), -1)
	out := make([]string, 0, len(raw))
	for _, token := range raw {
		if token = normalizeSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out
}

var degreePattern = regexp.MustCompile(`(?i)\b(?:Bachelor|B\.?S\.?|B\.?A\.?|Master|M\.?S\.?|M\.?A\.?|MBA|PhD|Ph\.?D\.?|Associate|Certificate|Diploma|High School)\b[^.\n]*`)

func educationPhrases(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	matches := degreePattern.FindAllString(strings.Join(lines, "\n"), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, normalizeSpace(m))
	}
	return out
}

var cityStatePattern = regexp.MustCompile(`\b[A-Z][A-Za-z.]+(?: [A-Z][A-Za-z.]+)*, [A-Z]{2}\b`)

// nonLocationWords are city-position tokens the location pattern must never
// emit, mostly technologies that show up capitalized in skill lists.
var nonLocationWords = map[string]struct{}{
	"python": {}, "java": {}, "sql": {}, "aws": {}, "docker": {}, "kubernetes": {},
	"react": {}, "node": {}, "excel": {}, "word": {}, "outlook": {}, "access": {},
	"powerpoint": {}, "windows": {}, "linux": {}, "agile": {}, "scrum": {},
	"api": {}, "rest": {}, "graphql": {}, "machine learning": {}, "ml": {}, "ai": {},
}

func locationsFromText(text string) []string {
	matches := cityStatePattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = normalizeSpace(m)
		city, _, _ := strings.Cut(m, ",")
		if _, blocked := nonLocationWords[strings.ToLower(strings.TrimSpace(city))]; blocked {
			continue
		}
		out = append(out, m)
	}
	return out
}

// uniqueFold dedupes case insensitively keeping the first spelling, drops
// tokens under minLen bytes, and stops at max when max is positive.
func uniqueFold(values []string, minLen, max int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalizeSpace(v)
		if len(v) < minLen {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
