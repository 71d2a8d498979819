package groq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

// IntentExtractor reads structured search intent from the user's request
// via a JSON mode chat call.
type IntentExtractor struct {
	client *Client
}

func NewIntentExtractor(client *Client) *IntentExtractor {
	return &IntentExtractor{client: client}
}

type intentPayload struct {
	Title      *string `json:"title"`
	Location   *string `json:"location"`
	Experience *string `json:"experience"`
	WorkType   *string `json:"work_type"`
	Company    *string `json:"company"`
}

func (e *IntentExtractor) ExtractIntent(ctx context.Context, query, resumeContext string) (domain.Intent, error) {
	reply, err := e.client.complete(ctx, "extract_intent", intentSystemPrompt(), buildIntentInput(query, resumeContext), true)
	if err != nil {
		return domain.Intent{}, err
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &payload); err != nil {
		return domain.Intent{}, fmt.Errorf("parse intent json: %w", err)
	}

	return domain.SanitizeIntent(domain.Intent{
		Title:      payload.Title,
		Location:   payload.Location,
		Experience: payload.Experience,
		WorkType:   payload.WorkType,
		Company:    payload.Company,
	}), nil
}
