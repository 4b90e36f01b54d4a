package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

var (
	emailPipeline    = Pipeline{strings.TrimSpace, strings.ToLower}
	freeTextPipeline = Pipeline{stripControl, strings.TrimSpace}
)

func NormalizeEmail(email string) string {
	return emailPipeline.Apply(email)
}

// NormalizeFreeText keeps line structure but removes other control runes.
func NormalizeFreeText(s string) string {
	return freeTextPipeline.Apply(s)
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func NormalizeTimeOfDay(s string) string {
	return strings.TrimSpace(s)
}
