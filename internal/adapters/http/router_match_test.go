package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abelyaev/cv-match/internal/config"
	"github.com/abelyaev/cv-match/internal/core/domain"
)

type matcherFake struct {
	result *domain.MatchResult
	err    error
	got    domain.MatchRequest
	called bool
}

func (f *matcherFake) Match(_ context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
	f.called = true
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type vocabFake struct {
	vocab domain.Vocabulary
}

func (f vocabFake) Current() domain.Vocabulary { return f.vocab }

type storageFake struct {
	saved   map[string][]byte
	removed []string
	saveErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.saved[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func strPtr(s string) *string { return &s }

func okMatchResult() *domain.MatchResult {
	return &domain.MatchResult{
		Hits: []domain.SearchHit{{
			ID:       "101",
			Title:    "Backend Developer",
			Company:  "Acme",
			Location: "Boston, MA",
			WorkType: "FULL_TIME",
			Snippet:  "Title: Backend Developer...",
			Score:    75.0,
		}},
		Intent: domain.Intent{Title: strPtr("Backend Developer")},
	}
}

func newTestHandler(cfg config.Config, matcher *matcherFake, storage *storageFake) http.Handler {
	if matcher == nil {
		matcher = &matcherFake{result: okMatchResult()}
	}
	if storage == nil {
		storage = &storageFake{}
	}
	return NewRouter(
		cfg,
		matcher,
		vocabFake{vocab: domain.NewVocabulary(
			[]string{"Boston, MA", "New York, NY"},
			[]string{"Entry level"},
			[]string{"FULL_TIME"},
		)},
		storage,
		nil,
		nil,
	).Handler()
}

func newMatchRequest(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if withFile {
		part, err := writer.CreateFormFile("resume", "resume.txt")
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte("Backend engineer resume text")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField(%s) error = %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/match", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestMatchEndpointSuccess(t *testing.T) {
	matcher := &matcherFake{result: okMatchResult()}
	storage := &storageFake{}
	handler := newTestHandler(config.Config{}, matcher, storage)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newMatchRequest(t, map[string]string{"query": "backend jobs"}, true))

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", res.Code, res.Body.String())
	}

	var resp struct {
		Hits   []domain.SearchHit `json:"hits"`
		Intent map[string]any     `json:"intent"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].ID != "101" || resp.Hits[0].Score != 75.0 {
		t.Fatalf("hits = %+v", resp.Hits)
	}
	if resp.Intent["title"] != "Backend Developer" {
		t.Errorf("intent title = %v", resp.Intent["title"])
	}
	// Unstated intent fields must render as explicit nulls.
	if v, ok := resp.Intent["location"]; !ok || v != nil {
		t.Errorf("intent location = %v present=%v, want explicit null", v, ok)
	}

	if matcher.got.Query != "backend jobs" {
		t.Errorf("request query = %q", matcher.got.Query)
	}
	if !matcher.got.Fusion {
		t.Error("fusion default = false, want true")
	}
	if matcher.got.Explain {
		t.Error("explain default = true, want false")
	}
	if matcher.got.Resume == nil || matcher.got.Resume.Filename != "resume.txt" {
		t.Fatalf("resume = %+v", matcher.got.Resume)
	}
	if _, ok := storage.saved[matcher.got.Resume.StorageKey]; !ok {
		t.Error("uploaded file not spooled under the request storage key")
	}
	if len(storage.removed) != 1 || storage.removed[0] != matcher.got.Resume.StorageKey {
		t.Errorf("spooled file not cleaned up: removed = %v", storage.removed)
	}
}

func TestMatchEndpointParsesFormOptions(t *testing.T) {
	matcher := &matcherFake{result: &domain.MatchResult{Hits: []domain.SearchHit{}}}
	handler := newTestHandler(config.Config{}, matcher, nil)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newMatchRequest(t, map[string]string{
		"query":   "data roles",
		"fusion":  "false",
		"explain": "true",
		"limit":   "3",
	}, true))

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
	if matcher.got.Fusion {
		t.Error("fusion = true, want parsed false")
	}
	if !matcher.got.Explain {
		t.Error("explain = false, want parsed true")
	}
	if matcher.got.Limit != 3 {
		t.Errorf("limit = %d, want 3", matcher.got.Limit)
	}
}

func TestMatchEndpointMissingFileReturns400(t *testing.T) {
	handler := newTestHandler(config.Config{}, nil, nil)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newMatchRequest(t, map[string]string{"query": "anything"}, false))

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.Code)
	}
}

func TestMatchEndpointRejectsNonMultipart(t *testing.T) {
	handler := newTestHandler(config.Config{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/match", bytes.NewBufferString("plain"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.Code)
	}
}

func TestMatchEndpointEmptyHitsIsOKWithEmptyArray(t *testing.T) {
	matcher := &matcherFake{result: &domain.MatchResult{
		Hits:   []domain.SearchHit{},
		Intent: domain.Intent{Location: strPtr("Mars")},
	}}
	handler := newTestHandler(config.Config{}, matcher, nil)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newMatchRequest(t, nil, true))

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for empty result", res.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(resp["hits"]) != "[]" {
		t.Fatalf("hits json = %s, want []", resp["hits"])
	}
	var intent domain.Intent
	if err := json.Unmarshal(resp["intent"], &intent); err != nil {
		t.Fatalf("decode intent: %v", err)
	}
	if intent.Location == nil || *intent.Location != "Mars" {
		t.Fatalf("intent = %+v, want paired intent even with zero hits", intent)
	}
}

func TestMatchEndpointGetMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(config.Config{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/match", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", res.Code)
	}
}

func TestVocabularyEndpoint(t *testing.T) {
	handler := newTestHandler(config.Config{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/vocabulary", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
	var resp map[string][]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp["locations"]) != 2 || resp["locations"][0] != "Boston, MA" {
		t.Errorf("locations = %v", resp["locations"])
	}
	if len(resp["experience_levels"]) != 1 || len(resp["work_types"]) != 1 {
		t.Errorf("vocabulary lists = %v", resp)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(config.Config{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
}
