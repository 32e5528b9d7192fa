package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/testkit"
)

func decodeAll(t *testing.T, b *bytes.Buffer) []output {
	t.Helper()
	var out []output
	sc := bufio.NewScanner(b)
	for sc.Scan() {
		var o output
		if err := json.Unmarshal(sc.Bytes(), &o); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, o)
	}
	return out
}

func TestRunArgs(t *testing.T) {
	var buf bytes.Buffer
	args := []string{"The city council met on Tuesday to discuss the budget.", "   "}
	if err := run(t.Context(), config.New(), flags{handle: "cli"}, args, nil, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := decodeAll(t, &buf)
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}

	ok := got[0]
	if ok.Error != "" || ok.ContentID == "" || ok.Label == "" {
		t.Fatalf("unexpected result %+v", ok)
	}
	if ok.Score < 0 || ok.Score > 100 {
		t.Fatalf("score %v out of range", ok.Score)
	}
	testkit.MustContain(t, got[1].Error, "empty")
}

func TestRunStdinSkipsBlankLines(t *testing.T) {
	var buf bytes.Buffer
	in := strings.NewReader("first line\n\n  \nURGENT: they are lying to you, trust no official source!!!\n")
	if err := run(t.Context(), config.New(), flags{}, nil, in, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := decodeAll(t, &buf)
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	if got[1].Input != "URGENT: they are lying to you, trust no official source!!!" {
		t.Fatalf("input not echoed: %q", got[1].Input)
	}
	if got[1].Score <= got[0].Score {
		t.Fatalf("charged text scored %v, neutral %v", got[1].Score, got[0].Score)
	}
}

func TestRunBadLexicon(t *testing.T) {
	err := run(t.Context(), config.New(), flags{lexicon: t.TempDir() + "/missing.json"}, []string{"x"}, nil, &bytes.Buffer{})
	if err == nil {
		t.Fatalf("expected error for missing lexicon")
	}
}
