package normalize

import (
	"reflect"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"empty", "", ""},
		{"keeps case and punctuation", "URGENT: trust no one!!!", "URGENT: trust no one!!!"},
		{"invalid utf8 dropped", string([]byte{0xff, 'h', 'i', 0x80, ' ', 'x'}), "hi x"},
		{"zero width removed", "ly\u200bing\ufeff", "lying"},
		{"controls removed", "a\x00b\x7fc", "abc"},
		{"whitespace collapsed", "  a\t\tb\n\nc   d  ", "a b c d"},
		{"nfkc ligature", "oﬃcial", "official"},
		{"fullwidth", "ＵＲＧＥＮＴ", "URGENT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Canonical(tc.in)
			if got != tc.out {
				t.Fatalf("Canonical(%q) = %q, want %q", tc.in, got, tc.out)
			}
			if again := Canonical(got); again != got {
				t.Fatalf("Canonical not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"case fold", "They Are LYING", "they are lying"},
		{"marks stripped", "café naïve", "cafe naive"},
		{"leet inside words", "l1ar 5h0ck1ng", "liar shocking"},
		{"numbers untouched", "2024 is 100% real", "2024 is 100% real"},
		{"leading mention kept", "@user h@ters", "@user haters"},
		{"fullwidth", "ＦＡＫＥ news", "fake news"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Fold(tc.in)
			if got != tc.out {
				t.Fatalf("Fold(%q) = %q, want %q", tc.in, got, tc.out)
			}
			if again := Fold(got); again != got {
				t.Fatalf("Fold not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"urgent: they are lying to you, trust no official source!!!",
			[]string{"urgent", "they", "are", "lying", "to", "you", "trust", "no", "official", "source"}},
		{"sooooo bad", []string{"soo", "bad"}},
		{"don't 'quote'", []string{"don't", "quote"}},
		{"#wakeup @bot", []string{"wakeup", "bot"}},
		{"!!! ...", []string{}},
	}
	for _, tc := range tests {
		got := Tokens(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Tokens(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
