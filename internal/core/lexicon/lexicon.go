// Package lexicon loads the embedded term sets and propaganda templates the feature extractor
// matches against. Terms are folded and tokenized with the same normalizer as submitted text.
package lexicon

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"satyanetra/internal/core/normalize"
)

//go:embed lexicon.json
var embedded []byte

// Set names a term family
type Set string

// Term families
const (
	Emotional      Set = "emotional"
	Fear           Set = "fear"
	Binary         Set = "binary"
	Attribution    Set = "attribution"
	Misinformation Set = "misinformation"
	Dehumanizing   Set = "dehumanizing"
	Amplification  Set = "amplification"
	Negative       Set = "negative"
	Positive       Set = "positive"
)

var knownSets = []Set{Emotional, Fear, Binary, Attribution, Misinformation, Dehumanizing, Amplification, Negative, Positive}

type rawLexicon struct {
	Version   int                 `json:"version"`
	Language  string              `json:"language"`
	Sets      map[string][]string `json:"sets"`
	Stopwords []string            `json:"stopwords"`
	Templates []string            `json:"templates"`
}

// Lexicon is immutable after Parse and safe for concurrent use
type Lexicon struct {
	version   int
	language  string
	m         *matcher
	patSet    []Set
	stop      map[string]struct{}
	templates []Template
}

// Template is a tokenized reference phrase
type Template struct {
	Text    string
	Tokens  []string
	Bigrams map[string]struct{}
}

// Counts holds hit counts per set
type Counts map[Set]int

var loadDefault = sync.OnceValues(func() (*Lexicon, error) { return Parse(embedded) })

// Default returns the embedded lexicon
func Default() (*Lexicon, error) { return loadDefault() }

// Parse compiles a lexicon document
func Parse(doc []byte) (*Lexicon, error) {
	var raw rawLexicon
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("lexicon: parse: %w", err)
	}
	if raw.Version != 1 {
		return nil, fmt.Errorf("lexicon: unsupported version %d (want 1)", raw.Version)
	}

	lx := &Lexicon{
		version:  raw.Version,
		language: strings.ToLower(strings.TrimSpace(raw.Language)),
		m:        newMatcher(),
		stop:     make(map[string]struct{}, len(raw.Stopwords)),
	}

	names := make([]string, 0, len(raw.Sets))
	for name := range raw.Sets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set := Set(name)
		if !set.known() {
			return nil, fmt.Errorf("lexicon: unknown set %q", name)
		}
		seen := map[string]bool{}
		for _, term := range raw.Sets[name] {
			key := strings.Join(normalize.Tokens(normalize.Fold(term)), " ")
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			lx.m.add(" "+key+" ", len(lx.patSet))
			lx.patSet = append(lx.patSet, set)
		}
	}
	lx.m.build()

	for _, w := range raw.Stopwords {
		if w = normalize.Fold(w); w != "" {
			lx.stop[w] = struct{}{}
		}
	}
	for _, t := range raw.Templates {
		toks := normalize.Tokens(normalize.Fold(t))
		if len(toks) == 0 {
			continue
		}
		lx.templates = append(lx.templates, Template{Text: t, Tokens: toks, Bigrams: Bigrams(toks)})
	}
	return lx, nil
}

func (s Set) known() bool {
	for _, k := range knownSets {
		if k == s {
			return true
		}
	}
	return false
}

// Version of the loaded document
func (lx *Lexicon) Version() int { return lx.version }

// Language the term sets are written in, as a BCP 47 base tag
func (lx *Lexicon) Language() string { return lx.language }

// Templates returns the reference phrases
func (lx *Lexicon) Templates() []Template { return lx.templates }

// Count returns per-set hit counts over folded tokens. Overlapping matches all count
func (lx *Lexicon) Count(tokens []string) Counts {
	c := Counts{}
	if len(tokens) == 0 {
		return c
	}
	lx.m.scan(" "+strings.Join(tokens, " ")+" ", func(id int) {
		c[lx.patSet[id]]++
	})
	return c
}

// StopwordRatio is the share of tokens found in the stopword list
func (lx *Lexicon) StopwordRatio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	n := 0
	for _, t := range tokens {
		if _, ok := lx.stop[t]; ok {
			n++
		}
	}
	return float64(n) / float64(len(tokens))
}

// Bigrams returns the set of adjacent token pairs; a single token stands for itself
func Bigrams(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	if len(tokens) == 1 {
		out[tokens[0]] = struct{}{}
		return out
	}
	for i := 0; i+1 < len(tokens); i++ {
		out[tokens[i]+" "+tokens[i+1]] = struct{}{}
	}
	return out
}
