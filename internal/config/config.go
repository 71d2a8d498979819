package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	APIKey            string
	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxInFlight    int

	ChromaURL        string
	ChromaCollection string

	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
	GroqRPM     int
	GroqBurst   int

	IntentTimeoutSeconds    int
	IntentResumePrefixChars int
	SnippetMaxChars         int
	SearchTopK              int

	NERBackend    string
	NERServerURL  string
	NERAuthToken  string
	NERConfidence float64

	VocabPath         string
	VocabAllowMissing bool

	DatasetPath       string
	IngestBatchSize   int
	IngestMetricsPort string

	StoragePath string

	NATSURL     string
	NATSSubject string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		APIKey:            mustEnv("API_KEY", ""),
		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 0),

		ChromaURL:        mustEnv("CHROMA_URL", "http://localhost:8000"),
		ChromaCollection: mustEnv("CHROMA_COLLECTION", "linkedin_jobs"),

		GroqAPIKey:  mustEnv("GROQ_API_KEY", ""),
		GroqBaseURL: mustEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   mustEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqRPM:     mustEnvInt("GROQ_RPM", 30),
		GroqBurst:   mustEnvInt("GROQ_BURST", 2),

		IntentTimeoutSeconds:    mustEnvInt("INTENT_TIMEOUT_SECONDS", 10),
		IntentResumePrefixChars: mustEnvInt("INTENT_RESUME_PREFIX_CHARS", 2000),
		SnippetMaxChars:         mustEnvInt("SNIPPET_MAX_CHARS", 500),
		SearchTopK:              mustEnvInt("SEARCH_TOP_K", 5),

		NERBackend:    mustEnv("NER_BACKEND", "rules"),
		NERServerURL:  mustEnv("NER_SERVER_URL", "https://api-inference.huggingface.co/models/yashpwr/resume-ner-bert-v2"),
		NERAuthToken:  mustEnv("NER_AUTH_TOKEN", ""),
		NERConfidence: mustEnvFloat("NER_CONFIDENCE", 0.5),

		VocabPath:         mustEnv("VOCAB_PATH", "./data/metadata_cache.json"),
		VocabAllowMissing: mustEnvBool("VOCAB_ALLOW_MISSING", false),

		DatasetPath:       mustEnv("DATASET_PATH", "./data/LinkedIn/postings.csv"),
		IngestBatchSize:   mustEnvInt("INGEST_BATCH_SIZE", 100),
		IngestMetricsPort: mustEnv("INGEST_METRICS_PORT", "9090"),

		StoragePath: mustEnv("STORAGE_PATH", "./data/uploads"),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "jobs.vocabulary"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
