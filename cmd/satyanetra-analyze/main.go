// Command satyanetra-analyze scores text synchronously and prints one JSON result per item.
// Items come from the arguments, or one per line on stdin when there are none.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"satyanetra/internal/adapters/inference"
	"satyanetra/internal/core/content"
	"satyanetra/internal/core/lexicon"
	"satyanetra/internal/core/scoring"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"

	analysismod "satyanetra/internal/services/analysis/module"
)

type output struct {
	Input string `json:"input"`
	scoring.Result
	Error string `json:"error,omitempty"`
}

type flags struct {
	handle  string
	lexicon string
	pretty  bool
}

func main() {
	logger.Init(logger.FromEnv())
	l := logger.Get()

	var f flags
	flag.StringVar(&f.handle, "handle", "", "source handle recorded on each item")
	flag.StringVar(&f.lexicon, "lexicon", "", "path to a lexicon JSON document (default: embedded)")
	flag.BoolVar(&f.pretty, "pretty", false, "indent JSON output")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config.New(), f, flag.Args(), os.Stdin, os.Stdout); err != nil {
		l.Error().Err(err).Msg("satyanetra-analyze failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, root config.Conf, f flags, args []string, in io.Reader, out io.Writer) error {
	lx, err := loadLexicon(f.lexicon)
	if err != nil {
		return err
	}

	o := analysismod.FromConfig(root)
	model, ok, err := inference.FromConfig(root.Prefix("SERVICE_INFERENCE_"), metrics.Discard())
	if err != nil {
		return err
	}
	if ok {
		o.Model = model
	}
	pipe := analysismod.NewPipeline(lx, o)
	norm := content.NewNormalizer(o.Limits)

	enc := json.NewEncoder(out)
	if f.pretty {
		enc.SetIndent("", "  ")
	}

	score := func(raw string) error {
		res := output{Input: raw}
		it, err := norm.Text(raw, f.handle)
		if err == nil {
			res.Result, _, err = pipe.Run(ctx, it)
		}
		if err != nil {
			res.Error = err.Error()
		}
		return enc.Encode(res)
	}

	if len(args) > 0 {
		for _, a := range args {
			if err := score(a); err != nil {
				return err
			}
		}
		return nil
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), o.Limits.MaxTextBytes+1)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := score(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func loadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return lexicon.Default()
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return lexicon.Parse(doc)
}
