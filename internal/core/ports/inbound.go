package ports

import (
	"context"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

// MatchService is the inbound contract for the resume to job match pipeline.
type MatchService interface {
	Match(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error)
}

// PostingIngestor is the inbound contract for loading a postings dataset
// into the index and rebuilding the vocabulary snapshot.
type PostingIngestor interface {
	Run(ctx context.Context, datasetPath string) (*domain.IngestReport, error)
}
