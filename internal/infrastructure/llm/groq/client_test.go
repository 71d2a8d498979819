package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
)

func fastGuard() *resilience.Guard {
	return resilience.New(resilience.Config{
		MaxAttempts:     3,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      2 * time.Millisecond,
		BreakerDisabled: true,
	}, nil)
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "llama-3.3-70b-versatile",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "llama-3.3-70b-versatile",
	}, fastGuard())
	return client, server
}

func TestIntentExtractorParsesReply(t *testing.T) {
	var captured map[string]any
	var auth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(chatReply(`{"title": "dev", "location": "New York", "experience": "ENTRY LEVEL", "work_type": "freelance", "company": null}`)))
	})

	intent, err := NewIntentExtractor(client).ExtractIntent(context.Background(), "junior dev in new york", "")
	if err != nil {
		t.Fatalf("ExtractIntent() error = %v", err)
	}

	if auth != "Bearer test-key" {
		t.Fatalf("Authorization = %q, want bearer key", auth)
	}
	if captured["model"] != "llama-3.3-70b-versatile" {
		t.Fatalf("model = %v", captured["model"])
	}
	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("response_format = %v, want json_object", captured["response_format"])
	}

	if intent.Title == nil || *intent.Title != "dev" {
		t.Fatalf("Title = %v, want dev", intent.Title)
	}
	if intent.Experience == nil || *intent.Experience != "Entry level" {
		t.Fatalf("Experience = %v, want canonical Entry level", intent.Experience)
	}
	if intent.WorkType != nil {
		t.Fatalf("WorkType = %q, want nil for a value outside the set", *intent.WorkType)
	}
	if intent.Company != nil {
		t.Fatalf("Company = %q, want nil", *intent.Company)
	}
}

func TestIntentExtractorSendsResumeContext(t *testing.T) {
	var userMessage string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		for _, m := range payload.Messages {
			if m.Role == "user" {
				userMessage = m.Content
			}
		}
		_, _ = w.Write([]byte(chatReply(`{}`)))
	})

	_, err := NewIntentExtractor(client).ExtractIntent(context.Background(), "backend roles", "Senior Go engineer, 7 years")
	if err != nil {
		t.Fatalf("ExtractIntent() error = %v", err)
	}
	if !strings.Contains(userMessage, "backend roles") || !strings.Contains(userMessage, "Senior Go engineer") {
		t.Fatalf("user message missing query or resume context: %s", userMessage)
	}
}

func TestIntentExtractorTrimsChatterAroundJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("Here is the extraction:\n{\"title\": \"analyst\"}\nDone.")))
	})

	intent, err := NewIntentExtractor(client).ExtractIntent(context.Background(), "analyst jobs", "")
	if err != nil {
		t.Fatalf("ExtractIntent() error = %v", err)
	}
	if intent.Title == nil || *intent.Title != "analyst" {
		t.Fatalf("Title = %v, want analyst", intent.Title)
	}
}

func TestIntentExtractorRejectsMalformedReply(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("I cannot produce JSON today.")))
	})

	_, err := NewIntentExtractor(client).ExtractIntent(context.Background(), "any", "")
	if err == nil {
		t.Fatal("ExtractIntent() error = nil, want parse failure")
	}
	if !strings.Contains(err.Error(), "parse intent json") {
		t.Fatalf("error = %v, want parse intent json", err)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
			return
		}
		_, _ = w.Write([]byte(chatReply(`{"title": "dev"}`)))
	})

	intent, err := NewIntentExtractor(client).ExtractIntent(context.Background(), "dev", "")
	if err != nil {
		t.Fatalf("ExtractIntent() error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want retry then success", calls)
	}
	if intent.Title == nil || *intent.Title != "dev" {
		t.Fatalf("Title = %v, want dev", intent.Title)
	}
}

func TestExplainerReturnsPlainText(t *testing.T) {
	var captured map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(chatReply("Strong overlap on Go and Kubernetes; missing Terraform.")))
	})

	text, err := NewExplainer(client).ExplainMatches(context.Background(), "resume text", "Title: Platform Engineer")
	if err != nil {
		t.Fatalf("ExplainMatches() error = %v", err)
	}
	if !strings.Contains(text, "missing Terraform") {
		t.Fatalf("explanation = %q", text)
	}
	if _, ok := captured["response_format"]; ok {
		t.Fatalf("explain request set response_format: %v", captured["response_format"])
	}
}

func TestClassifyGroqErrorContextNeverRetries(t *testing.T) {
	v := classifyGroqError(context.Canceled)
	if v.Retry || v.Trip {
		t.Fatalf("verdict = %+v, want no retry and no trip", v)
	}
}
