// Command jsonl2json converts a backfill JSONL dump into a JSON array.
//
//	jsonl2json <dump.jsonl> [out.json]
//
// Without an output path the array is written next to the input with a
// .json extension; "-" writes to stdout.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rugbyscores/ingestion/internal/dump"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: jsonl2json <dump.jsonl> [out.json|-]")
		os.Exit(1)
	}

	in := os.Args[1]
	out := outputPath(in)
	if len(os.Args) == 3 {
		out = os.Args[2]
	}

	n, err := convert(in, out)
	if err != nil {
		log.Error().Err(err).Str("input", in).Msg("Conversion failed")
		os.Exit(1)
	}

	if out != "-" {
		log.Info().Str("output", out).Int("items", n).Msg("Converted")
	}
}

func outputPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".json"
}

func convert(in, out string) (int, error) {
	f, err := os.Open(in)
	if err != nil {
		return 0, fmt.Errorf("failed to open dump: %w", err)
	}
	defer f.Close()

	items, err := dump.ReadJSONL(f)
	if err != nil {
		return 0, err
	}

	var w io.Writer = os.Stdout
	if out != "-" {
		dst, err := os.Create(out)
		if err != nil {
			return 0, fmt.Errorf("failed to create output: %w", err)
		}
		defer dst.Close()
		w = dst
	}

	if err := dump.WriteJSONArray(w, items); err != nil {
		return 0, err
	}
	return len(items), nil
}
