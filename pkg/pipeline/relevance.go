package pipeline

import "strings"

// Vocabulary is the set of topical keywords that make a mentioned message
// worth answering. Matching is a case-insensitive substring check, so
// "statusnya" still hits "status".
type Vocabulary []string

func NewVocabulary(words []string) Vocabulary {
	v := make(Vocabulary, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			v = append(v, w)
		}
	}
	return v
}

func (v Vocabulary) IsRelevant(body string) bool {
	lower := strings.ToLower(body)
	for _, w := range v {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
