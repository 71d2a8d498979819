package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/core/ports"
)

const (
	defaultBatchSize = 100

	// unknownValue stands in for blank metadata cells so the vocabulary
	// still accounts for them.
	unknownValue = "UNKNOWN"
)

// IngestConfig tunes the ETL run. Zero values fall back to defaults.
type IngestConfig struct {
	BatchSize int
}

// IngestPostingsUseCase streams a postings dataset into the job index and
// rebuilds the vocabulary snapshot from the values it indexed.
type IngestPostingsUseCase struct {
	reader ports.PostingReader
	index  ports.JobIndex
	vocab  ports.VocabularyWriter
	events ports.VocabularyEvents
	cfg    IngestConfig
}

func NewIngestPostingsUseCase(
	reader ports.PostingReader,
	index ports.JobIndex,
	vocab ports.VocabularyWriter,
	events ports.VocabularyEvents,
	cfg IngestConfig,
) *IngestPostingsUseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &IngestPostingsUseCase{
		reader: reader,
		index:  index,
		vocab:  vocab,
		events: events,
		cfg:    cfg,
	}
}

func (uc *IngestPostingsUseCase) Run(ctx context.Context, datasetPath string) (*domain.IngestReport, error) {
	start := time.Now()

	var (
		report    domain.IngestReport
		batch     []domain.Posting
		locations = make(map[string]struct{})
		levels    = make(map[string]struct{})
		workTypes = make(map[string]struct{})
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := uc.index.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert postings batch: %w", err)
		}
		report.Batches++
		batch = batch[:0]
		return nil
	}

	err := uc.reader.ReadPostings(ctx, datasetPath, func(p domain.Posting) error {
		report.Rows++
		if strings.TrimSpace(p.ID) == "" {
			report.Skipped++
			return nil
		}

		collectValue(locations, p.Location)
		collectValue(levels, p.Experience)
		collectValue(workTypes, p.WorkType)

		batch = append(batch, p)
		report.Indexed++
		if len(batch) >= uc.cfg.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read postings dataset: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	vocab := domain.NewVocabulary(mapKeys(locations), mapKeys(levels), mapKeys(workTypes))
	if err := uc.vocab.Write(ctx, vocab); err != nil {
		return nil, fmt.Errorf("write vocabulary snapshot: %w", err)
	}
	report.Locations = len(vocab.Locations)
	report.ExperienceLevels = len(vocab.ExperienceLevels)
	report.WorkTypes = len(vocab.WorkTypes)

	// The snapshot must be on disk before the reload event goes out.
	if uc.events != nil {
		report.EventPublished = uc.events.PublishVocabularyUpdated(ctx) == nil
	}

	report.Duration = time.Since(start)
	return &report, nil
}

func collectValue(set map[string]struct{}, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = unknownValue
	}
	set[value] = struct{}{}
}

func mapKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
