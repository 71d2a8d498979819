package chunking

import "strings"

// Splitter cuts text into overlapping word windows sized for a bounded
// model input.
type Splitter struct {
	WindowWords  int
	OverlapWords int
}

func NewSplitter(windowWords, overlapWords int) *Splitter {
	if windowWords <= 0 {
		windowWords = 120
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	if overlapWords >= windowWords {
		overlapWords = windowWords / 4
	}
	return &Splitter{
		WindowWords:  windowWords,
		OverlapWords: overlapWords,
	}
}

func (s *Splitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := s.WindowWords - s.OverlapWords
	if step <= 0 {
		step = s.WindowWords
	}

	out := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + s.WindowWords
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}
