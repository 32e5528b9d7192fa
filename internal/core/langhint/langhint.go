// Package langhint guesses the script and language of a text from its letters.
package langhint

import (
	"unicode"

	"golang.org/x/text/language"
)

// MinLetters is the letter count below which no language is guessed
const MinLetters = 20

// Hint is the outcome of Detect
type Hint struct {
	Script string       // predominant script, "" when the text has no letters
	Tag    language.Tag // language.Und when unsure
}

// Lang returns the BCP 47 string, "und" when unknown
func (h Hint) Lang() string { return h.Tag.String() }

type script struct {
	name  string
	table *unicode.RangeTable
	lang  language.Tag // decisive language for the script, Und when ambiguous
}

// order matters: Japanese kana outrank Han, specific scripts outrank Latin on ties
var scripts = []script{
	{"Hiragana", unicode.Hiragana, language.Japanese},
	{"Katakana", unicode.Katakana, language.Japanese},
	{"Hangul", unicode.Hangul, language.Korean},
	{"Han", unicode.Han, language.Und},
	{"Arabic", unicode.Arabic, language.Arabic},
	{"Hebrew", unicode.Hebrew, language.Hebrew},
	{"Thai", unicode.Thai, language.Thai},
	{"Greek", unicode.Greek, language.Greek},
	{"Cyrillic", unicode.Cyrillic, language.Und},
	{"Georgian", unicode.Georgian, language.Georgian},
	{"Armenian", unicode.Armenian, language.Armenian},
	{"Devanagari", unicode.Devanagari, language.Und},
	{"Latin", unicode.Latin, language.Und},
}

// Detect returns the predominant script and, with enough letters, a language.
// Latin text maps to latin, which the caller decides (for instance from a stopword ratio);
// pass language.Und to leave Latin text unlabelled.
func Detect(s string, latin language.Tag) Hint {
	counts := make([]int, len(scripts))
	total := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		for i, sc := range scripts {
			if unicode.Is(sc.table, r) {
				counts[i]++
				break
			}
		}
	}

	best := -1
	for i, c := range counts {
		if c > 0 && (best < 0 || c > counts[best]) {
			best = i
		}
	}
	h := Hint{Tag: language.Und}
	if best < 0 {
		return h
	}
	h.Script = scripts[best].name
	if total < MinLetters {
		return h
	}

	// any kana makes it Japanese even when Han dominates
	if counts[0] > 0 || counts[1] > 0 {
		h.Tag = language.Japanese
		return h
	}
	if h.Script == "Latin" {
		h.Tag = latin
		return h
	}
	h.Tag = scripts[best].lang
	return h
}
