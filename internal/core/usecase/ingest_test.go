package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

type postingReaderFake struct {
	postings []domain.Posting
	err      error
	gotPath  string
}

func (f *postingReaderFake) ReadPostings(_ context.Context, path string, fn func(domain.Posting) error) error {
	f.gotPath = path
	if f.err != nil {
		return f.err
	}
	for _, p := range f.postings {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

type ingestIndexFake struct {
	batches [][]domain.Posting
	err     error
}

func (f *ingestIndexFake) Upsert(_ context.Context, postings []domain.Posting) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]domain.Posting(nil), postings...))
	return nil
}

func (f *ingestIndexFake) Query(context.Context, string, domain.FilterExpression, int) (domain.QueryResult, error) {
	return domain.QueryResult{}, errors.New("not implemented")
}

type vocabWriterFake struct {
	written *domain.Vocabulary
	err     error
}

func (f *vocabWriterFake) Write(_ context.Context, vocab domain.Vocabulary) error {
	if f.err != nil {
		return f.err
	}
	f.written = &vocab
	return nil
}

type vocabEventsFake struct {
	published int
	err       error
}

func (f *vocabEventsFake) PublishVocabularyUpdated(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.published++
	return nil
}

func (f *vocabEventsFake) SubscribeVocabularyUpdated(context.Context, func(context.Context) error) error {
	return errors.New("not implemented")
}

func samplePostings() []domain.Posting {
	return []domain.Posting{
		{ID: "1", Title: "Backend Developer", Location: "Boston, MA", Experience: "Entry level", WorkType: "FULL_TIME"},
		{ID: "2", Title: "Data Analyst", Location: "New York, NY", Experience: "Associate", WorkType: "FULL_TIME"},
		{ID: "", Title: "No ID Row", Location: "Nowhere"},
		{ID: "3", Title: "SRE", Location: "Boston, MA", Experience: "", WorkType: "CONTRACT"},
		{ID: "4", Title: "Platform Engineer", Location: "Austin, TX", Experience: "Mid-Senior level", WorkType: "FULL_TIME"},
		{ID: "5", Title: "QA Engineer", Location: "Austin, TX", Experience: "Entry level", WorkType: "PART_TIME"},
	}
}

func TestIngestRunBatchesAndCounts(t *testing.T) {
	index := &ingestIndexFake{}
	writer := &vocabWriterFake{}
	events := &vocabEventsFake{}
	uc := NewIngestPostingsUseCase(&postingReaderFake{postings: samplePostings()}, index, writer, events, IngestConfig{BatchSize: 2})

	report, err := uc.Run(context.Background(), "postings.csv")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Rows != 6 || report.Indexed != 5 || report.Skipped != 1 {
		t.Fatalf("report = %+v, want rows=6 indexed=5 skipped=1", report)
	}
	if report.Batches != 3 {
		t.Fatalf("batches = %d, want 3", report.Batches)
	}
	if got := len(index.batches); got != 3 {
		t.Fatalf("upsert calls = %d, want 3", got)
	}
	if len(index.batches[0]) != 2 || len(index.batches[2]) != 1 {
		t.Fatalf("batch sizes = %d/%d/%d, want 2/2/1",
			len(index.batches[0]), len(index.batches[1]), len(index.batches[2]))
	}
	if !report.EventPublished || events.published != 1 {
		t.Fatalf("event published = %v (%d), want exactly one event", report.EventPublished, events.published)
	}
}

func TestIngestRunBuildsSortedVocabulary(t *testing.T) {
	writer := &vocabWriterFake{}
	uc := NewIngestPostingsUseCase(&postingReaderFake{postings: samplePostings()}, &ingestIndexFake{}, writer, nil, IngestConfig{})

	report, err := uc.Run(context.Background(), "postings.csv")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if writer.written == nil {
		t.Fatal("vocabulary snapshot not written")
	}
	wantLocations := []string{"Austin, TX", "Boston, MA", "New York, NY"}
	if !reflect.DeepEqual(writer.written.Locations, wantLocations) {
		t.Errorf("locations = %v, want %v", writer.written.Locations, wantLocations)
	}
	// The blank experience on row 3 must surface as UNKNOWN.
	wantLevels := []string{"Associate", "Entry level", "Mid-Senior level", "UNKNOWN"}
	if !reflect.DeepEqual(writer.written.ExperienceLevels, wantLevels) {
		t.Errorf("experience levels = %v, want %v", writer.written.ExperienceLevels, wantLevels)
	}
	if report.Locations != len(wantLocations) || report.ExperienceLevels != len(wantLevels) {
		t.Errorf("report counts = %d/%d, want %d/%d",
			report.Locations, report.ExperienceLevels, len(wantLocations), len(wantLevels))
	}
}

func TestIngestRunSkippedRowsStayOutOfVocabulary(t *testing.T) {
	writer := &vocabWriterFake{}
	uc := NewIngestPostingsUseCase(&postingReaderFake{postings: samplePostings()}, &ingestIndexFake{}, writer, nil, IngestConfig{})

	if _, err := uc.Run(context.Background(), "postings.csv"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, loc := range writer.written.Locations {
		if loc == "Nowhere" {
			t.Fatal("location from a skipped row leaked into the vocabulary")
		}
	}
}

func TestIngestRunPublishFailureDoesNotFail(t *testing.T) {
	uc := NewIngestPostingsUseCase(
		&postingReaderFake{postings: samplePostings()},
		&ingestIndexFake{},
		&vocabWriterFake{},
		&vocabEventsFake{err: errors.New("nats down")},
		IngestConfig{},
	)

	report, err := uc.Run(context.Background(), "postings.csv")
	if err != nil {
		t.Fatalf("Run() error = %v, want success despite publish failure", err)
	}
	if report.EventPublished {
		t.Fatal("EventPublished = true, want false")
	}
}

func TestIngestRunUpsertErrorFails(t *testing.T) {
	uc := NewIngestPostingsUseCase(
		&postingReaderFake{postings: samplePostings()},
		&ingestIndexFake{err: errors.New("store down")},
		&vocabWriterFake{},
		nil,
		IngestConfig{BatchSize: 2},
	)

	if _, err := uc.Run(context.Background(), "postings.csv"); err == nil {
		t.Fatal("Run() error = nil, want upsert failure to surface")
	}
}

func TestIngestRunReaderErrorFails(t *testing.T) {
	uc := NewIngestPostingsUseCase(
		&postingReaderFake{err: errors.New("no such file")},
		&ingestIndexFake{},
		&vocabWriterFake{},
		nil,
		IngestConfig{},
	)

	if _, err := uc.Run(context.Background(), "missing.csv"); err == nil {
		t.Fatal("Run() error = nil, want reader failure to surface")
	}
}

func TestIngestRunVocabularyWriteErrorFails(t *testing.T) {
	uc := NewIngestPostingsUseCase(
		&postingReaderFake{postings: samplePostings()},
		&ingestIndexFake{},
		&vocabWriterFake{err: errors.New("disk full")},
		nil,
		IngestConfig{},
	)

	if _, err := uc.Run(context.Background(), "postings.csv"); err == nil {
		t.Fatal("Run() error = nil, want snapshot write failure to surface")
	}
}
