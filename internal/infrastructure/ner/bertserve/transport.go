package bertserve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// entitySpan is one labelled span from the token-classification reply.
type entitySpan struct {
	EntityGroup string  `json:"entity_group"`
	Entity      string  `json:"entity"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
}

func (s entitySpan) label() string {
	if s.EntityGroup != "" {
		return s.EntityGroup
	}
	return s.Entity
}

type transport struct {
	url        string
	authToken  string
	httpClient *http.Client
}

func newTransport(url, authToken string) *transport {
	return &transport{
		url:        strings.TrimRight(url, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *transport) classify(ctx context.Context, input string) ([]entitySpan, error) {
	body, err := json.Marshal(map[string]string{"inputs": input})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.authToken)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &HTTPStatusError{
			Operation:  "classify",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	var spans []entitySpan
	if err := json.NewDecoder(resp.Body).Decode(&spans); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}
	return spans, nil
}
