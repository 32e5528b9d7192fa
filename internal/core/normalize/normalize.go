// Package normalize canonicalizes submitted text.
//
// Canonical is what gets stored and scored for style: invalid UTF-8 dropped, NFKC, format and
// control runes removed, whitespace runs collapsed to one space. Case and punctuation survive.
// Fold is the lexicon key form derived from Canonical: case folded, marks stripped, width folded
// and in-word leetspeak mapped back to letters.
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// transformers are stateful, so each goroutine borrows its own chain
var (
	canonPool = sync.Pool{
		New: func() any {
			return transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cf)))
		},
	}
	foldPool = sync.Pool{
		New: func() any {
			return transform.Chain(
				norm.NFD,
				runes.Remove(runes.In(unicode.Mn)),
				cases.Fold(),
				width.Fold,
				norm.NFC,
			)
		},
	}
)

// Canonical returns the stored form of s
func Canonical(s string) string {
	if s == "" {
		return ""
	}
	s = dropControls(s)
	s = apply(&canonPool, s)
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns the lexicon key form of s. Fold(Fold(s)) == Fold(s)
func Fold(s string) string {
	s = Canonical(s)
	if s == "" {
		return ""
	}
	return leetFold(apply(&foldPool, s))
}

func apply(p *sync.Pool, s string) string {
	tr := p.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	p.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// dropControls removes invalid bytes and control runes, keeping whitespace for Fields
func dropControls(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// leetFold maps digit and symbol lookalikes back to letters, only inside words that already
// contain a letter, so numbers, prices and leading @mentions keep their meaning
func leetFold(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if !hasLetter(w) {
			continue
		}
		var b strings.Builder
		b.Grow(len(w))
		for j, r := range w {
			if m, ok := leet[r]; ok && (j > 0 || (r != '@' && r != '$')) {
				r = m
			}
			b.WriteRune(r)
		}
		words[i] = b.String()
	}
	return strings.Join(words, " ")
}

var leet = map[rune]rune{
	'4': 'a', '@': 'a',
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'5': 's', '$': 's',
	'7': 't',
}

func hasLetter(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
