package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinTokenLength is the shortest token kept after filtering.
const MinTokenLength = 3

var urlPattern = regexp.MustCompile(`(?:https?://|www\.)\S*`)

// Text normalizes raw, prefixed by context when context is non-empty.
// The result is lowercase and accent-free. Characters outside a-z and
// whitespace are deleted, so punctuation never splits a word. Stop words and
// short tokens are removed and the rest joined by single spaces.
func Text(raw, context string) string {
	return strings.Join(Tokens(raw, context), " ")
}

// Tokens is Text without the final join.
func Tokens(raw, context string) []string {
	combined := raw
	if context != "" {
		combined = context + " " + raw
	}
	if strings.TrimSpace(combined) == "" {
		return nil
	}

	s := strings.ToLower(combined)
	s = urlPattern.ReplaceAllString(s, " ")
	s = stripAccents(s)

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	fields := strings.Fields(s)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < MinTokenLength || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// stripAccents decomposes s and drops the combining marks.
// Transformers carry state, so a fresh chain is built per call.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
