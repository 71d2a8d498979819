package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/abelyaev/cv-match/internal/config"
	"github.com/abelyaev/cv-match/internal/core/ports"
	"github.com/abelyaev/cv-match/internal/core/usecase"
	"github.com/abelyaev/cv-match/internal/infrastructure/dataset"
	"github.com/abelyaev/cv-match/internal/infrastructure/extractor/document"
	"github.com/abelyaev/cv-match/internal/infrastructure/llm/groq"
	"github.com/abelyaev/cv-match/internal/infrastructure/ner/bertserve"
	"github.com/abelyaev/cv-match/internal/infrastructure/ner/rules"
	"github.com/abelyaev/cv-match/internal/infrastructure/queue/nats"
	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
	"github.com/abelyaev/cv-match/internal/infrastructure/storage/localfs"
	"github.com/abelyaev/cv-match/internal/infrastructure/vector/chroma"
	"github.com/abelyaev/cv-match/internal/infrastructure/vocab"
)

// App wires the adapters behind the core ports. Both binaries build the
// full graph; the API serves MatchUC while the ingest run drives IngestUC.
type App struct {
	Config config.Config

	Vocabulary *vocab.Holder
	Queue      *nats.Queue
	Storage    ports.ObjectStorage
	MatchUC    ports.MatchService
	IngestUC   ports.PostingIngestor

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	logger := slog.Default()
	guard := resilience.New(resilience.Config{}, logger)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Guard:  guard,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	index := chroma.New(cfg.ChromaURL, cfg.ChromaCollection, guard)

	groqClient := groq.New(groq.Config{
		APIKey:            cfg.GroqAPIKey,
		BaseURL:           cfg.GroqBaseURL,
		Model:             cfg.GroqModel,
		RequestsPerMinute: cfg.GroqRPM,
		Burst:             cfg.GroqBurst,
	}, guard)
	intents := groq.NewIntentExtractor(groqClient)
	explainer := groq.NewExplainer(groqClient)

	profiles, err := profileExtractor(cfg, guard)
	if err != nil {
		queue.Close()
		return nil, err
	}

	snapshot := vocab.NewSnapshot(cfg.VocabPath)
	holder := vocab.NewHolder(snapshot)

	matchUC := usecase.NewMatchJobsUseCase(
		document.NewExtractor(storage),
		profiles,
		intents,
		explainer,
		index,
		holder,
		usecase.MatchConfig{
			DefaultLimit:      cfg.SearchTopK,
			SnippetMaxChars:   cfg.SnippetMaxChars,
			IntentResumeChars: cfg.IntentResumePrefixChars,
			IntentTimeout:     time.Duration(cfg.IntentTimeoutSeconds) * time.Second,
		},
	)
	ingestUC := usecase.NewIngestPostingsUseCase(
		dataset.NewReader(),
		index,
		snapshot,
		queue,
		usecase.IngestConfig{BatchSize: cfg.IngestBatchSize},
	)

	return &App{
		Config: cfg,

		Vocabulary: holder,
		Queue:      queue,
		Storage:    storage,
		MatchUC:    matchUC,
		IngestUC:   ingestUC,

		closeFn: func() {
			queue.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func profileExtractor(cfg config.Config, guard *resilience.Guard) (ports.ProfileExtractor, error) {
	switch cfg.NERBackend {
	case "rules", "":
		return rules.New(), nil
	case "bertserve":
		return bertserve.New(bertserve.Config{
			URL:        cfg.NERServerURL,
			AuthToken:  cfg.NERAuthToken,
			Confidence: cfg.NERConfidence,
		}, guard), nil
	default:
		return nil, fmt.Errorf("unknown NER_BACKEND %q, want rules or bertserve", cfg.NERBackend)
	}
}
