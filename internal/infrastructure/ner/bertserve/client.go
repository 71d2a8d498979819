package bertserve

import (
	"context"
	"strings"

	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/infrastructure/chunking"
	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
)

// The hosted model is trained with a 128 token input limit; windows stay
// under it with room for special tokens.
const (
	windowWords  = 120
	overlapWords = 30

	defaultConfidence = 0.5

	maxRoles  = 20
	maxSkills = 50
)

// Config holds the connection settings for a hosted token-classification
// model speaking the HuggingFace inference protocol.
type Config struct {
	URL        string
	AuthToken  string
	Confidence float64
}

// Extractor classifies resume text chunk by chunk and buckets the returned
// entity spans into profile categories.
type Extractor struct {
	splitter   *chunking.Splitter
	guard      *resilience.Guard
	transport  *transport
	confidence float64
}

func New(cfg Config, guard *resilience.Guard) *Extractor {
	if guard == nil {
		guard = resilience.New(resilience.Config{}, nil)
	}
	confidence := cfg.Confidence
	if confidence <= 0 {
		confidence = defaultConfidence
	}
	return &Extractor{
		splitter:   chunking.NewSplitter(windowWords, overlapWords),
		guard:      guard,
		transport:  newTransport(cfg.URL, cfg.AuthToken),
		confidence: confidence,
	}
}

func (e *Extractor) ExtractProfile(ctx context.Context, text string) (domain.Profile, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Profile{}, nil
	}

	var (
		roles, skills, education, locations []string
		succeeded                           bool
		lastErr                             error
	)
	for _, chunk := range e.splitter.Split(text) {
		spans, err := e.classify(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Profile{}, err
			}
			lastErr = err
			continue
		}
		succeeded = true
		for _, s := range spans {
			e.collect(s, &roles, &skills, &education, &locations)
		}
	}
	if !succeeded && lastErr != nil {
		return domain.Profile{}, lastErr
	}

	return domain.NewProfile(
		capTokens(roles, 2, maxRoles),
		capTokens(skills, 2, maxSkills),
		capTokens(education, 2, 0),
		capTokens(locations, 2, 0),
	), nil
}

func (e *Extractor) classify(ctx context.Context, chunk string) ([]entitySpan, error) {
	var spans []entitySpan
	err := e.guard.Run(ctx, "ner_classify", classifyBertError, func(ctx context.Context) error {
		out, err := e.transport.classify(ctx, chunk)
		if err != nil {
			return err
		}
		spans = out
		return nil
	})
	return spans, err
}

// collect buckets one span, dropping low confidence and known junk.
func (e *Extractor) collect(s entitySpan, roles, skills, education, locations *[]string) {
	if s.Score < e.confidence {
		return
	}
	word := strings.Trim(normalizeSpace(s.Word), ".,; ")
	category := categoryForLabel(s.label())
	if word == "" || category == "" {
		return
	}

	switch category {
	case categoryRoles:
		*roles = append(*roles, word)
	case categorySkills:
		if _, junk := skillsBlocklist[strings.ToLower(word)]; junk || len(word) < 2 {
			return
		}
		// The model often tags a whole comma separated list as one span.
		for _, part := range strings.Split(word, ",") {
			part = strings.Trim(normalizeSpace(part), ".,; ")
			if len(part) < 2 {
				continue
			}
			if _, junk := skillsBlocklist[strings.ToLower(part)]; junk {
				continue
			}
			*skills = append(*skills, part)
		}
	case categoryEducation:
		if _, junk := stateCodes[strings.ToLower(word)]; junk {
			return
		}
		*education = append(*education, word)
	case categoryLocations:
		if _, junk := locationJunk[strings.ToLower(word)]; junk {
			return
		}
		*locations = append(*locations, word)
	}
}

const (
	categoryRoles     = "roles"
	categorySkills    = "skills"
	categoryEducation = "education"
	categoryLocations = "locations"
)

// labelCategories maps the model's entity labels to profile categories.
// Name, company, email and similar labels carry nothing searchable and map
// to nothing.
var labelCategories = map[string]string{
	"designation":  categoryRoles,
	"skills":       categorySkills,
	"degree":       categoryEducation,
	"college name": categoryEducation,
	"location":     categoryLocations,
}

func categoryForLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.TrimPrefix(label, "B-")
	label = strings.TrimPrefix(label, "I-")
	return labelCategories[strings.ToLower(label)]
}

// Section headings the model sometimes tags as a skill.
var skillsBlocklist = map[string]struct{}{
	"skills": {}, "education": {}, "learning education": {}, ",": {},
}

// Two letter state codes the model sometimes tags as a degree.
var stateCodes = map[string]struct{}{
	"ma": {}, "ca": {}, "ny": {}, "tx": {}, "fl": {}, "il": {}, "pa": {}, "oh": {},
	"ga": {}, "nc": {}, "mi": {}, "nj": {}, "va": {}, "wa": {}, "az": {}, "co": {},
	"or": {}, "tn": {}, "mo": {}, "md": {},
}

// Technology tokens the model sometimes tags as a location.
var locationJunk = map[string]struct{}{
	"python": {}, "java": {}, "sql": {}, "aws": {}, "ca": {},
}

func capTokens(values []string, minLen, max int) []string {
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
