package commands

import (
	"strings"
	"unicode"
)

// Tokenize splits arguments on whitespace and commas, keeping quoted
// sections together with their quotes.
func Tokenize(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
		quote  rune
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == ',' || unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// ParseValue converts a literal typed in the REPL. Quoted text stays a
// string; bare true, false, null and undefined become their Go values.
func ParseValue(token string) interface{} {
	token = strings.TrimSpace(token)
	if unquoted, ok := unquote(token); ok {
		return unquoted
	}
	switch token {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}
	return token
}

// Unquote strips one pair of matching quotes, if present.
func Unquote(token string) string {
	if unquoted, ok := unquote(strings.TrimSpace(token)); ok {
		return unquoted
	}
	return strings.TrimSpace(token)
}

func unquote(token string) (string, bool) {
	if len(token) >= 2 {
		first, last := token[0], token[len(token)-1]
		if first == last && (first == '"' || first == '\'') {
			return token[1 : len(token)-1], true
		}
	}
	return token, false
}
