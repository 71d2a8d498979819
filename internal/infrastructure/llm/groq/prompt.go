package groq

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

// intentSystemPrompt pins the closed filter sets so the model can only
// answer with values the index actually stores, or null.
func intentSystemPrompt() string {
	return fmt.Sprintf(`You are a Search Intent Extractor. Extract filters from the user's request.

HARD CATEGORIES:
- "experience": Must match EXACTLY one of: %s. If no match, use null.
- "work_type": Must match EXACTLY one of: %s. If no match, use null.

FUZZY CATEGORIES:
- "location": Extract the city or state mentioned (e.g. "New York", "Texas").
- "title": The job role mentioned.
- "company": The company mentioned.

Return ONLY JSON. If a filter is not mentioned, use null.
Example: "Junior dev in New York" -> {"experience": "Entry level", "location": "New York", "title": "dev"}`,
		quotedList(domain.ExperienceLevels),
		quotedList(domain.WorkTypes),
	)
}

func buildIntentInput(query, resumeContext string) string {
	if strings.TrimSpace(resumeContext) == "" {
		return query
	}
	return query + "\n\nResume context:\n" + resumeContext
}

func buildExplainPrompt(resumeText, topDocument string) string {
	return fmt.Sprintf(`Compare this candidate's Resume to these Job Results. Explain WHY they matched and what they are missing for the top match.

Resume:
%s

Job Results:
%s`, resumeText, topDocument)
}

func quotedList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, strconv.Quote(v))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
