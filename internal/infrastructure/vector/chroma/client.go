package chroma

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
)

// Client talks to a Chroma server over its REST API. The server embeds
// documents and query texts itself, so only raw text crosses the wire.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	guard      *resilience.Guard

	ensureMu     sync.Mutex
	collectionID string
}

func New(baseURL, collection string, guard *resilience.Guard) *Client {
	if guard == nil {
		guard = resilience.New(resilience.Config{}, nil)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		guard:      guard,
	}
}

func (c *Client) Upsert(ctx context.Context, postings []domain.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	ids := make([]string, 0, len(postings))
	documents := make([]string, 0, len(postings))
	metadatas := make([]map[string]string, 0, len(postings))
	for _, p := range postings {
		ids = append(ids, p.ID)
		documents = append(documents, p.Document())
		metadatas = append(metadatas, p.Metadata())
	}

	err := c.guard.Run(ctx, "chroma_upsert", classifyChromaError, func(ctx context.Context) error {
		collectionID, err := c.ensureCollection(ctx)
		if err != nil {
			return err
		}
		payload := map[string]any{
			"ids":       ids,
			"documents": documents,
			"metadatas": metadatas,
		}
		return c.postJSON(ctx, "/api/v1/collections/"+collectionID+"/upsert", payload, nil, "upsert")
	})
	return wrapUnavailableIfNeeded("chroma upsert", err)
}

func (c *Client) Query(ctx context.Context, text string, filter domain.FilterExpression, limit int) (domain.QueryResult, error) {
	payload := map[string]any{
		"query_texts": []string{text},
		"n_results":   limit,
		"include":     []string{"documents", "metadatas", "distances"},
	}
	if where := whereFilter(filter); where != nil {
		payload["where"] = where
	}

	// Chroma nests every array one level per query text; we always send one.
	var reply struct {
		IDs       [][]string         `json:"ids"`
		Documents [][]string         `json:"documents"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Distances [][]float64        `json:"distances"`
	}
	err := c.guard.Run(ctx, "chroma_query", classifyChromaError, func(ctx context.Context) error {
		collectionID, err := c.ensureCollection(ctx)
		if err != nil {
			return err
		}
		return c.postJSON(ctx, "/api/v1/collections/"+collectionID+"/query", payload, &reply, "query")
	})
	if err != nil {
		return domain.QueryResult{}, wrapUnavailableIfNeeded("chroma query", err)
	}

	var out domain.QueryResult
	if len(reply.IDs) > 0 {
		out.IDs = reply.IDs[0]
	}
	if len(reply.Documents) > 0 {
		out.Documents = reply.Documents[0]
	}
	if len(reply.Distances) > 0 {
		out.Distances = reply.Distances[0]
	}
	if len(reply.Metadatas) > 0 {
		out.Metadatas = make([]map[string]string, 0, len(reply.Metadatas[0]))
		for _, meta := range reply.Metadatas[0] {
			out.Metadatas = append(out.Metadatas, stringValues(meta))
		}
	}
	return out, nil
}

// ensureCollection resolves the collection id once and caches it. Chroma
// addresses collections by id, not by name.
func (c *Client) ensureCollection(ctx context.Context) (string, error) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.collectionID != "" {
		return c.collectionID, nil
	}

	var reply struct {
		ID string `json:"id"`
	}
	payload := map[string]any{
		"name":          c.collection,
		"get_or_create": true,
	}
	if err := c.postJSON(ctx, "/api/v1/collections", payload, &reply, "ensure collection"); err != nil {
		return "", err
	}
	if reply.ID == "" {
		return "", fmt.Errorf("ensure collection: no id for %q", c.collection)
	}
	c.collectionID = reply.ID
	return c.collectionID, nil
}

// whereFilter renders the expression in Chroma's where syntax: one clause is
// a bare operator object, several are joined under $and.
func whereFilter(filter domain.FilterExpression) map[string]any {
	if filter.IsEmpty() {
		return nil
	}
	clauses := make([]map[string]any, 0, len(filter.Clauses))
	for _, clause := range filter.Clauses {
		clauses = append(clauses, clauseMap(clause))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return map[string]any{"$and": clauses}
}

func clauseMap(clause domain.FilterClause) map[string]any {
	if clause.Op == domain.FilterIN {
		return map[string]any{clause.Field: map[string]any{"$in": clause.Values}}
	}
	return map[string]any{clause.Field: map[string]any{"$eq": clause.Value}}
}

func stringValues(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta))
	for key, value := range meta {
		switch v := value.(type) {
		case string:
			out[key] = v
		case nil:
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
