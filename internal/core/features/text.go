package features

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/language"

	"satyanetra/internal/core/langhint"
	"satyanetra/internal/core/lexicon"
	"satyanetra/internal/core/normalize"
)

// EnglishStopwordRatio is the stopword share above which Latin text is labelled with the lexicon language
const EnglishStopwordRatio = 0.15

// surface counts come from the canonical text, before folding erases case and symbols
type surface struct {
	capsWords int
	marks     int
	hashtags  int
	mentions  int
	urls      int
	numbers   int
	quotes    int
}

func scanSurface(text string) surface {
	var s surface
	for _, f := range strings.Fields(text) {
		lf := strings.ToLower(f)
		switch {
		case strings.HasPrefix(lf, "http://"), strings.HasPrefix(lf, "https://"), strings.HasPrefix(lf, "www."):
			s.urls++
			continue
		case strings.HasPrefix(f, "#") && len(f) > 1:
			s.hashtags++
		case strings.HasPrefix(f, "@") && len(f) > 1:
			s.mentions++
		}
		letters, upper := 0, 0
		digit := false
		for _, r := range f {
			switch {
			case unicode.IsLetter(r):
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			case unicode.IsDigit(r):
				digit = true
			}
		}
		if letters >= 2 && upper == letters {
			s.capsWords++
		}
		if digit {
			s.numbers++
		}
	}
	s.marks = strings.Count(text, "!") + max(0, strings.Count(text, "?")-1)
	s.quotes = (strings.Count(text, `"`) + strings.Count(text, "“") + strings.Count(text, "”")) / 2
	return s
}

// textSignals fills v with the lexical and stylistic signals of text and returns the detected language
func textSignals(lx *lexicon.Lexicon, text string, v *Vector) string {
	toks := normalize.Tokens(normalize.Fold(text))
	sf := scanSurface(text)
	hits := lx.Count(toks)
	n := float64(max(1, len(toks)))

	caps := math.Min(1, 5*float64(sf.capsWords)/n)
	punct := math.Min(1, float64(sf.marks)/3)
	per := func(set lexicon.Set, k float64) float64 { return math.Min(1, k*float64(hits[set])/n) }

	v.set(CapsIntensity, caps)
	v.set(PunctuationIntensity, punct)
	v.set(EmotionalLanguage, 0.55*per(lexicon.Emotional, 4)+0.25*caps+0.2*punct)
	v.set(FearAppeal, 0.8*per(lexicon.Fear, 3)+0.2*punct)
	v.set(BinaryFraming, per(lexicon.Binary, 3))
	v.set(SourceAttribution, 0.5*float64(hits[lexicon.Attribution])+0.5*float64(sf.urls))
	v.set(ClaimVerifiability, 0.25*float64(sf.numbers)+0.25*float64(sf.quotes)+0.5*float64(sf.urls))
	v.set(MisinformationMarkers, per(lexicon.Misinformation, 3))
	v.set(DehumanizingLanguage, per(lexicon.Dehumanizing, 4))
	v.set(AmplificationPattern, 0.2*float64(sf.hashtags)+0.1*float64(sf.mentions)+per(lexicon.Amplification, 3))
	v.set(SentimentNegative, per(lexicon.Negative, 5))
	v.set(SentimentPositive, per(lexicon.Positive, 5))
	v.set(PropagandaSimilarity, TemplateSimilarity(lx.Templates(), toks))

	guess := language.Und
	if lx.StopwordRatio(toks) >= EnglishStopwordRatio {
		guess = language.Make(lx.Language())
	}
	return langhint.Detect(text, guess).Lang()
}

// TemplateSimilarity is the best blend of template bigram containment and token Jaccard
// across the reference templates
func TemplateSimilarity(templates []lexicon.Template, toks []string) float64 {
	if len(toks) == 0 {
		return 0
	}
	textSet := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		textSet[t] = struct{}{}
	}
	textBigrams := lexicon.Bigrams(toks)

	best := 0.0
	for _, tpl := range templates {
		if len(tpl.Bigrams) == 0 {
			continue
		}
		in := 0
		for bg := range tpl.Bigrams {
			if _, ok := textBigrams[bg]; ok {
				in++
			} else if _, ok := textSet[bg]; ok {
				in++
			}
		}
		containment := float64(in) / float64(len(tpl.Bigrams))

		tplSet := make(map[string]struct{}, len(tpl.Tokens))
		for _, t := range tpl.Tokens {
			tplSet[t] = struct{}{}
		}
		inter := 0
		for t := range tplSet {
			if _, ok := textSet[t]; ok {
				inter++
			}
		}
		union := len(textSet) + len(tplSet) - inter
		jaccard := float64(inter) / float64(union)

		best = math.Max(best, 0.5*containment+0.5*jaccard)
	}
	return best
}
