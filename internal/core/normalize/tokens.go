package normalize

import (
	"strings"
	"unicode"
)

// Tokens splits folded text into word tokens. Letters, digits and inner apostrophes are kept,
// everything else separates words, and character runs longer than two are squashed
// ("soooo" -> "soo") so stretched words still hit the lexicon.
func Tokens(folded string) []string {
	raw := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := raw[:0]
	for _, t := range raw {
		t = strings.Trim(t, "'")
		if t == "" {
			continue
		}
		out = append(out, squashRuns(t, 2))
	}
	return out
}

func squashRuns(s string, max int) string {
	var (
		b     strings.Builder
		prev  rune
		count int
	)
	b.Grow(len(s))
	for _, r := range s {
		if r == prev {
			count++
			if count > max {
				continue
			}
		} else {
			prev, count = r, 1
		}
		b.WriteRune(r)
	}
	return b.String()
}
