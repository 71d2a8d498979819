package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abelyaev/cv-match/internal/config"
	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/core/ports"
	"github.com/abelyaev/cv-match/internal/observability/logging"
	"github.com/abelyaev/cv-match/internal/observability/metrics"
)

const serviceName = "api"

// maxUploadBytes bounds the in-memory part of multipart parsing; larger
// resume files spill to temp files.
const maxUploadBytes = 16 << 20

type Router struct {
	cfg     config.Config
	matcher ports.MatchService
	vocab   ports.VocabularyProvider
	storage ports.ObjectStorage
	metrics *metrics.HTTPServerMetrics
	logger  *slog.Logger
}

func NewRouter(
	cfg config.Config,
	matcher ports.MatchService,
	vocab ports.VocabularyProvider,
	storage ports.ObjectStorage,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:     cfg,
		matcher: matcher,
		vocab:   vocab,
		storage: storage,
		metrics: m,
		logger:  logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/match", rt.matchResume)
	mux.HandleFunc("/v1/vocabulary", rt.vocabulary)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	// Outermost first: request id, access log, metrics, rate limit,
	// backpressure, auth.
	var handler http.Handler = mux
	handler = rt.authMiddleware(handler)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, defaultBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) matchResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	start := time.Now()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form is required")
		return
	}
	file, fileHeader, err := r.FormFile("resume")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'resume' is required")
		return
	}
	defer file.Close()

	resume, cleanup, err := rt.spoolResume(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.logger.Error("spool resume upload",
			"request_id", logging.RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "store uploaded resume")
		return
	}
	defer cleanup()

	result, err := rt.matcher.Match(r.Context(), domain.MatchRequest{
		Resume:  resume,
		Query:   r.FormValue("query"),
		Fusion:  formBool(r, "fusion", true),
		Explain: formBool(r, "explain", false),
		Limit:   formInt(r, "limit", 0),
	})
	if err != nil {
		rt.logger.Error("match pipeline failed",
			"request_id", logging.RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, mapErrorToHTTPStatus(err), errorMessage(err))
		return
	}

	rt.observeMatch(r.Context(), result, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) vocabulary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	current := rt.vocab.Current()
	writeJSON(w, http.StatusOK, map[string][]string{
		"locations":         emptyNotNull(current.Locations),
		"experience_levels": emptyNotNull(current.ExperienceLevels),
		"work_types":        emptyNotNull(current.WorkTypes),
	})
}

// spoolResume writes the upload under a fresh key and hands back a cleanup
// that removes it once the request is answered.
func (rt *Router) spoolResume(ctx context.Context, filename string, body io.Reader) (*domain.Resume, func(), error) {
	id := uuid.NewString()
	key := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))

	if err := rt.storage.Save(ctx, key, body); err != nil {
		return nil, nil, fmt.Errorf("save to object storage: %w", err)
	}

	resume := &domain.Resume{
		ID:         id,
		Filename:   filename,
		StorageKey: key,
		UploadedAt: time.Now().UTC(),
	}
	cleanup := func() {
		if err := rt.storage.Remove(context.Background(), key); err != nil {
			rt.logger.Warn("remove spooled resume", "key", key, "error", err)
		}
	}
	return resume, cleanup, nil
}

func (rt *Router) observeMatch(ctx context.Context, result *domain.MatchResult, elapsed time.Duration) {
	requestID := logging.RequestIDFromContext(ctx)
	if result.ProfileDegraded {
		rt.logger.Warn("profile extraction degraded to empty profile", "request_id", requestID)
		if rt.metrics != nil {
			rt.metrics.RecordProfileDegradation(serviceName)
		}
	}
	if result.IntentDegraded {
		rt.logger.Warn("intent extraction degraded to empty intent", "request_id", requestID)
		if rt.metrics != nil {
			rt.metrics.RecordIntentDegradation(serviceName)
		}
	}
	if result.ExplainDegraded {
		rt.logger.Warn("match explanation degraded to empty", "request_id", requestID)
	}
	if rt.metrics == nil {
		return
	}
	if result.Explanation != "" || result.ExplainDegraded {
		rt.metrics.RecordExplanation(serviceName, result.ExplainDegraded)
	}
	rt.metrics.RecordMatch(serviceName, len(result.Hits), elapsed)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "resume.bin"
	}
	return base
}

func formBool(r *http.Request, field string, fallback bool) bool {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func formInt(r *http.Request, field string, fallback int) int {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func emptyNotNull(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
