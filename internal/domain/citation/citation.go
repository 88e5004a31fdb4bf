// Package citation detects structural references such as "Article 12" in legal text.
package citation

import "regexp"

// Word is the canonical label prefix regardless of which token form matched.
const Word = "Article"

// articleRe matches "Article 5", "art. 12A", "ARTICLE\n7b". The token must start a word,
// so "Particle 5" is not a citation.
var articleRe = regexp.MustCompile(`(?i)\b(?:Article|Art\.)\s+(\d+[A-Za-z]?)`)

// Extract returns the first citation label in text, normalized to "Article {number}{suffix}".
func Extract(text string) (string, bool) {
	m := articleRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return Word + " " + m[1], true
}
