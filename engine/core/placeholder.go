package core

import (
	"regexp"
	"strings"
	"unicode"
)

var placeholderRe = regexp.MustCompile(`^\{\{[A-Z0-9_]+\}\}$`)

// Placeholder returns the token written in place of a missing or withheld secret.
func Placeholder(name string) string {
	return "{{" + name + "}}"
}

// IsPlaceholder reports whether s is exactly one placeholder token.
func IsPlaceholder(s string) bool {
	return placeholderRe.MatchString(strings.TrimSpace(s))
}

// ScreamingSnake converts a dotted camelCase path such as "webSearch.serperApiKey"
// into "WEB_SEARCH_SERPER_API_KEY". Runs of capitals stay together ("credsIV" -> "CREDS_IV").
func ScreamingSnake(path string) string {
	var b strings.Builder
	runes := []rune(path)
	for i, r := range runes {
		switch {
		case r == '.' || r == '-' || r == ' ' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				if !strings.HasSuffix(b.String(), "_") {
					b.WriteByte('_')
				}
			}
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return strings.Trim(b.String(), "_")
}
