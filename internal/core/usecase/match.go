package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/core/ports"
)

const (
	defaultTopK              = 5
	defaultSnippetChars      = 500
	defaultIntentResumeChars = 2000
	defaultIntentTimeout     = 10 * time.Second
)

// MatchConfig tunes the pipeline knobs. Zero values fall back to defaults.
type MatchConfig struct {
	DefaultLimit      int
	SnippetMaxChars   int
	IntentResumeChars int
	IntentTimeout     time.Duration
}

func (c MatchConfig) withDefaults() MatchConfig {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = defaultTopK
	}
	if c.SnippetMaxChars <= 0 {
		c.SnippetMaxChars = defaultSnippetChars
	}
	if c.IntentResumeChars <= 0 {
		c.IntentResumeChars = defaultIntentResumeChars
	}
	if c.IntentTimeout <= 0 {
		c.IntentTimeout = defaultIntentTimeout
	}
	return c
}

// MatchJobsUseCase runs the resume to postings pipeline: extract, resolve,
// compile, compose, search. All state is per request; the only shared input
// is the read only vocabulary snapshot.
type MatchJobsUseCase struct {
	extractor ports.TextExtractor
	profiles  ports.ProfileExtractor
	intents   ports.IntentExtractor
	explainer ports.MatchExplainer
	index     ports.JobIndex
	vocab     ports.VocabularyProvider
	cfg       MatchConfig
}

func NewMatchJobsUseCase(
	extractor ports.TextExtractor,
	profiles ports.ProfileExtractor,
	intents ports.IntentExtractor,
	explainer ports.MatchExplainer,
	index ports.JobIndex,
	vocab ports.VocabularyProvider,
	cfg MatchConfig,
) *MatchJobsUseCase {
	return &MatchJobsUseCase{
		extractor: extractor,
		profiles:  profiles,
		intents:   intents,
		explainer: explainer,
		index:     index,
		vocab:     vocab,
		cfg:       cfg.withDefaults(),
	}
}

func (uc *MatchJobsUseCase) Match(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = uc.cfg.DefaultLimit
	}

	text, textDegraded := uc.resumeText(ctx, req.Resume)
	profile, intent, profileDegraded, intentDegraded := uc.extractSignals(ctx, text, req.Query)

	resolved := resolveLocations(intent.Location, uc.vocab.Current())
	filter := compileFilter(intent, resolved)
	query := composeQuery(baseTerm(intent, req.Query), profile, req.Fusion)

	found, err := uc.index.Query(ctx, query, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("query job index: %w", err)
	}
	hits, err := uc.mapHits(found)
	if err != nil {
		return nil, err
	}

	result := &domain.MatchResult{
		Hits:            hits,
		Intent:          intent,
		ProfileDegraded: textDegraded || profileDegraded,
		IntentDegraded:  intentDegraded,
	}
	if req.Explain && len(hits) > 0 {
		result.Explanation, result.ExplainDegraded = uc.explain(ctx, text, found.Documents[0])
	}
	return result, nil
}

// resumeText reads the spooled file. Any extraction failure degrades to
// empty text so the pipeline keeps going on the preference query alone.
func (uc *MatchJobsUseCase) resumeText(ctx context.Context, resume *domain.Resume) (string, bool) {
	if resume == nil {
		return "", false
	}
	text, err := uc.extractor.Extract(ctx, resume)
	if err != nil {
		return "", true
	}
	return text, false
}

// extractSignals runs profile and intent extraction concurrently. The two
// stages share no state, so each writes its own variables and the join
// happens before anything downstream reads them.
func (uc *MatchJobsUseCase) extractSignals(ctx context.Context, text, query string) (domain.Profile, domain.Intent, bool, bool) {
	var (
		wg              sync.WaitGroup
		profile         domain.Profile
		intent          domain.Intent
		profileDegraded bool
		intentDegraded  bool
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, profileDegraded = uc.extractProfile(ctx, text)
	}()
	go func() {
		defer wg.Done()
		intent, intentDegraded = uc.extractIntent(ctx, query, text)
	}()
	wg.Wait()

	return profile, intent, profileDegraded, intentDegraded
}

func (uc *MatchJobsUseCase) extractProfile(ctx context.Context, text string) (domain.Profile, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.Profile{}, false
	}
	profile, err := uc.profiles.ExtractProfile(ctx, text)
	if err != nil {
		return domain.Profile{}, true
	}
	return profile, false
}

// extractIntent calls the extractor under its own deadline. Errors and
// timeouts both degrade to the all nil Intent for this request; a previous
// request's intent is never reused.
func (uc *MatchJobsUseCase) extractIntent(ctx context.Context, query, text string) (domain.Intent, bool) {
	callCtx, cancel := context.WithTimeout(ctx, uc.cfg.IntentTimeout)
	defer cancel()

	intent, err := uc.intents.ExtractIntent(callCtx, query, prefixChars(text, uc.cfg.IntentResumeChars))
	if err != nil {
		return domain.Intent{}, true
	}
	return intent, false
}

func (uc *MatchJobsUseCase) mapHits(found domain.QueryResult) ([]domain.SearchHit, error) {
	hits := make([]domain.SearchHit, 0, len(found.IDs))
	if len(found.IDs) == 0 {
		return hits, nil
	}
	if len(found.Documents) != len(found.IDs) || len(found.Metadatas) != len(found.IDs) || len(found.Distances) != len(found.IDs) {
		return nil, domain.WrapError(domain.ErrUnavailable, "map index results",
			fmt.Errorf("misaligned result arrays: ids=%d documents=%d metadatas=%d distances=%d",
				len(found.IDs), len(found.Documents), len(found.Metadatas), len(found.Distances)))
	}
	for i, id := range found.IDs {
		meta := found.Metadatas[i]
		hits = append(hits, domain.SearchHit{
			ID:       id,
			Title:    meta[domain.FieldTitle],
			Company:  meta[domain.FieldCompany],
			Location: meta[domain.FieldLocation],
			WorkType: meta[domain.FieldWorkType],
			Snippet:  domain.Snippet(found.Documents[i], uc.cfg.SnippetMaxChars),
			Score:    domain.ScoreFromDistance(found.Distances[i]),
		})
	}
	return hits, nil
}

// explain asks the model to compare the resume with the best posting. A
// failed call degrades to an empty explanation; the match itself stands.
func (uc *MatchJobsUseCase) explain(ctx context.Context, resumeText, topDocument string) (string, bool) {
	if uc.explainer == nil {
		return "", false
	}
	explanation, err := uc.explainer.ExplainMatches(ctx, prefixChars(resumeText, uc.cfg.IntentResumeChars), topDocument)
	if err != nil {
		return "", true
	}
	return explanation, false
}

func prefixChars(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
