// Package metrics derives size features from step result text, feeding
// the telemetry stream with how much material each step hands back to
// the model.
package metrics

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Features holds basic local text features derived from an input string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures computes byte, rune, word, and line counts for s in a
// single pass. Words are runs of non-whitespace; an empty string has
// zero lines, otherwise lines are 1 plus the newline count.
func CountFeatures(s string) Features {
	f := Features{Bytes: len(s), Runes: utf8.RuneCountInString(s)}
	if s == "" {
		return f
	}
	f.Lines = 1 + strings.Count(s, "\n")

	inWord := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			f.Words++
			inWord = true
		}
	}
	return f
}
