package domain

import (
	"math"
	"time"
)

// Resume identifies an uploaded resume file sitting in the spool. The file
// itself is transient; nothing about a resume is persisted past the request.
type Resume struct {
	ID         string
	Filename   string
	StorageKey string
	UploadedAt time.Time
}

// MatchRequest carries one end to end match call.
type MatchRequest struct {
	Resume  *Resume
	Query   string
	Fusion  bool
	Explain bool
	Limit   int
}

// QueryResult is the index reply as parallel arrays. Entries at the same
// position describe the same posting; consumers must validate alignment
// before mapping.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]string
	Distances []float64
}

// SearchHit is one ranked posting as shown to the caller.
type SearchHit struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Company  string  `json:"company"`
	Location string  `json:"location"`
	WorkType string  `json:"work_type"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}

// MatchResult pairs the ranked hits with the Intent that produced them. The
// two always travel together so the caller can render both. Degradation
// flags are for observability only and never serialized.
type MatchResult struct {
	Hits        []SearchHit `json:"hits"`
	Intent      Intent      `json:"intent"`
	Explanation string      `json:"explanation,omitempty"`

	ProfileDegraded bool `json:"-"`
	IntentDegraded  bool `json:"-"`
	ExplainDegraded bool `json:"-"`
}

// ScoreFromDistance maps a store distance to a similarity score rounded to
// two decimals. No clamping: a distance outside [0,1] yields a score
// outside [0,100] and is surfaced as is.
func ScoreFromDistance(distance float64) float64 {
	return math.Round((1-distance)*100*100) / 100
}

// Snippet returns a prefix of text at most max runes long, with an ellipsis
// appended only when the text was actually cut.
func Snippet(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
