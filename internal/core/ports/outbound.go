package ports

import (
	"context"
	"io"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

// ObjectStorage spools uploaded resume files for the duration of a request.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// TextExtractor extracts plain text from a spooled resume file. Unsupported
// extensions yield empty text, not an error.
type TextExtractor interface {
	Extract(ctx context.Context, resume *domain.Resume) (string, error)
}

// ProfileExtractor pulls structured candidate facts out of resume text.
// Exactly one backend is active per deployment.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, text string) (domain.Profile, error)
}

// IntentExtractor reads structured search intent from the user's request.
// resumeContext is an already bounded prefix of the resume text and may be
// empty.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, query, resumeContext string) (domain.Intent, error)
}

// MatchExplainer writes a short comparison of the resume against the top
// ranked posting.
type MatchExplainer interface {
	ExplainMatches(ctx context.Context, resumeText, topDocument string) (string, error)
}

// JobIndex stores posting documents and runs filtered semantic queries. The
// store embeds document and query text server side.
type JobIndex interface {
	Upsert(ctx context.Context, postings []domain.Posting) error
	Query(ctx context.Context, text string, filter domain.FilterExpression, limit int) (domain.QueryResult, error)
}

// VocabularyProvider exposes the current vocabulary snapshot. Current must
// be safe for concurrent readers.
type VocabularyProvider interface {
	Current() domain.Vocabulary
}

// VocabularySource loads a vocabulary snapshot from its backing artifact.
type VocabularySource interface {
	Load(ctx context.Context) (domain.Vocabulary, error)
}

// VocabularyWriter persists a rebuilt vocabulary snapshot.
type VocabularyWriter interface {
	Write(ctx context.Context, vocab domain.Vocabulary) error
}

// VocabularyEvents publishes and consumes snapshot update notifications.
type VocabularyEvents interface {
	PublishVocabularyUpdated(ctx context.Context) error
	SubscribeVocabularyUpdated(ctx context.Context, handler func(context.Context) error) error
}

// PostingReader streams postings out of a dataset file, one callback per
// row.
type PostingReader interface {
	ReadPostings(ctx context.Context, path string, fn func(domain.Posting) error) error
}
