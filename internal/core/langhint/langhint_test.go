package langhint

import (
	"testing"

	"golang.org/x/text/language"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		latin  language.Tag
		script string
		lang   string
	}{
		{"empty", "", language.English, "", "und"},
		{"digits only", "2024 100%", language.English, "", "und"},
		{"short latin", "hi there", language.English, "Latin", "und"},
		{"latin uses caller guess", "they are lying to you trust no official source", language.English, "Latin", "en"},
		{"latin unknown", "they are lying to you trust no official source", language.Und, "Latin", "und"},
		{"greek", "Η γρήγορη καφέ αλεπού πηδάει πάνω από τον σκύλο", language.English, "Greek", "el"},
		{"cyrillic ambiguous", "Съешь же ещё этих мягких французских булок", language.English, "Cyrillic", "und"},
		{"japanese kana with han", "日本語のテキストです。これは長い文章になりますよ。", language.English, "Hiragana", "ja"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := Detect(tc.in, tc.latin)
			if h.Script != tc.script || h.Lang() != tc.lang {
				t.Fatalf("Detect(%q) = (%q, %q), want (%q, %q)", tc.in, h.Script, h.Lang(), tc.script, tc.lang)
			}
		})
	}
}
