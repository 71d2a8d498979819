package groq

import "context"

// Explainer writes a short comparison of a resume against the best ranked
// posting.
type Explainer struct {
	client *Client
}

func NewExplainer(client *Client) *Explainer {
	return &Explainer{client: client}
}

func (e *Explainer) ExplainMatches(ctx context.Context, resumeText, topDocument string) (string, error) {
	return e.client.complete(ctx, "explain_matches", "", buildExplainPrompt(resumeText, topDocument), false)
}
