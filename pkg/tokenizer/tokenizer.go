package tokenizer

import "strings"

// edgePunct is the set of characters stripped from the ends of a token.
// Interior punctuation is left alone, so "a-b_c" survives as one token.
const edgePunct = "!@#$%^&*(),./<>?[]{}:;'\"-_=+`~|\\"

// Fields lowercases text, splits it on whitespace, trims punctuation from
// both ends of every token and drops tokens that end up empty.
// The whole input is case-folded before splitting, matching the crawler
// which stores post titles already lowercased.
func Fields(text string) []string {
	raw := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.Trim(w, edgePunct)
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	return words
}
