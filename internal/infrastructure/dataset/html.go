package dataset

import (
	"strings"

	"golang.org/x/net/html"
)

// stripHTML flattens posting descriptions to plain text. Scraped datasets
// mix raw text with HTML fragments; only the visible text should reach the
// embedded document.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var (
		parts   []string
		skipped string
	)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipped = tag
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == skipped {
				skipped = ""
			}
		case html.TextToken:
			if skipped != "" {
				continue
			}
			if text := strings.Join(strings.Fields(string(tokenizer.Text())), " "); text != "" {
				parts = append(parts, text)
			}
		}
	}
}
