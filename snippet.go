package langspec

import (
	"strings"
	"unicode"
)

// SnippetMaxLength is the default snippet window in characters.
const SnippetMaxLength = 300

// queryOperators are full-text query keywords that never occur as search
// terms in the body text.
var queryOperators = map[string]bool{
	"AND":  true,
	"OR":   true,
	"NOT":  true,
	"NEAR": true,
}

// QueryTokens splits a full-text query into case-folded search terms,
// dropping boolean operators and wildcard, quote and grouping punctuation.
func QueryTokens(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(query) {
		if queryOperators[field] {
			continue
		}
		tok := strings.Map(func(r rune) rune {
			switch r {
			case '*', '"', '\'', '(', ')', '^', '+':
				return -1
			}
			return unicode.ToLower(r)
		}, field)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// ExtractSnippet returns a window of at most maxLen characters of body focused
// on the earliest occurrence of any query term. Offsets are in characters.
func ExtractSnippet(body, query string, maxLen int) Snippet {
	if maxLen <= 0 {
		maxLen = SnippetMaxLength
	}

	text := []rune(body)
	n := len(text)
	if n <= maxLen {
		return Snippet{Text: body, StartChar: 0, EndChar: n}
	}

	match := earliestMatch(text, QueryTokens(query))
	if match < 0 {
		return Snippet{Text: string(text[:maxLen]) + Ellipsis, StartChar: 0, EndChar: maxLen}
	}

	start := match - maxLen/2
	if start < 0 {
		start = 0
	}
	end := start + maxLen
	if end > n {
		end = n
		start = max(0, n-maxLen)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(Ellipsis)
	}
	b.WriteString(string(text[start:end]))
	if end < n {
		b.WriteString(Ellipsis)
	}
	return Snippet{Text: b.String(), StartChar: start, EndChar: end}
}

// earliestMatch returns the smallest rune offset at which any token occurs,
// compared case-insensitively, or -1.
func earliestMatch(text []rune, tokens []string) int {
	if len(tokens) == 0 {
		return -1
	}

	folded := make([]rune, len(text))
	for i, r := range text {
		folded[i] = unicode.ToLower(r)
	}

	best := -1
	for _, tok := range tokens {
		needle := []rune(tok)
		if i := indexRunes(folded, needle); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
