// Package batch drives parsing and reverting over whole directory trees.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ckscript/internal/fileio"
	"ckscript/internal/filewalker"
	"ckscript/internal/script"
	"ckscript/internal/worker"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Options control a batch run.
type Options struct {
	// OutputDir receives saved results, mirroring the source tree.
	OutputDir string
	// Save writes each result (JSON for parsing, script text for
	// reverting) under OutputDir.
	Save bool
	// Comments keeps comments as document nodes while parsing.
	Comments bool
	// Workers is the revert pool size.
	Workers int
	// ForcedListKeys always parse as lists, even on first occurrence.
	ForcedListKeys []string
}

func (o Options) outputDir() string {
	if o.OutputDir == "" {
		return "output"
	}
	return o.OutputDir
}

// ParseAll parses every .txt file under root. Files under script_values
// directories go first so shared constants are registered before use;
// parsing is strictly sequential because the variable table is shared.
// A failing file is reported and skipped, never aborting the batch.
// The result maps extension-less relative paths to their documents.
func ParseAll(ctx context.Context, root string, vars *script.VarTable, opts Options) (map[string]*script.Block, error) {
	start := time.Now()

	entries, err := filewalker.NewWalker().Walk(root)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*script.Block)
	var failed []string

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		doc, err := parseEntry(entry, vars, opts)
		if err != nil {
			failed = append(failed, entry.Path)
			continue
		}
		if doc == nil {
			continue
		}
		results[strings.TrimSuffix(entry.Rel, filepath.Ext(entry.Rel))] = doc
	}

	log.Info().
		Int("parsed", len(results)).
		Int("errors", len(failed)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch parse complete")
	for _, path := range failed {
		log.Warn().Str("file", path).Msg("Error detected in file")
	}
	return results, nil
}

// ParseFile parses a single script file, saving the document under the
// output directory when requested. An empty file yields a nil document.
func ParseFile(path string, vars *script.VarTable, opts Options) (*script.Block, error) {
	entry := filewalker.FileEntry{Path: path, Rel: filepath.Base(path)}
	return parseEntry(entry, vars, opts)
}

func parseEntry(entry filewalker.FileEntry, vars *script.VarTable, opts Options) (*script.Block, error) {
	text, err := fileio.ReadText(entry.Path)
	if err != nil {
		log.Warn().Err(err).Str("file", entry.Path).Msg("Cannot read file")
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	log.Debug().Str("file", entry.Rel).Msg("Parsing")
	doc, err := script.NewParser(vars).
		WithComments(opts.Comments).
		WithFilename(entry.Rel).
		WithForcedListKeys(opts.ForcedListKeys...).
		Parse(text)
	if err != nil {
		if opts.Save {
			// Keep the canonical text around for inspection.
			if perr, ok := err.(*script.ParseError); ok {
				if werr := saveResult(entry.Rel, ".error", []byte(perr.Canonical), opts); werr != nil {
					log.Warn().Err(werr).Str("file", entry.Rel).Msg("Cannot save error file")
				}
			}
		}
		return nil, err
	}

	if opts.Save {
		data, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
		if err := saveResult(entry.Rel, ".json", data, opts); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// RevertAll reverts every saved .json document under root back to script
// text. Documents are independent, so the work runs on a worker pool.
func RevertAll(ctx context.Context, root string, opts Options) (map[string]string, error) {
	start := time.Now()

	w := &filewalker.Walker{Ext: ".json"}
	entries, err := w.Walk(root)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool[filewalker.FileEntry, string](opts.Workers,
		func(ctx context.Context, entry filewalker.FileEntry) (string, error) {
			return revertEntry(entry, opts)
		},
	)
	tasks := pool.Execute(ctx, entries)

	results := make(map[string]string)
	errors := 0
	for _, task := range tasks {
		if task.Err != nil {
			errors++
			continue
		}
		results[strings.TrimSuffix(task.Input.Rel, filepath.Ext(task.Input.Rel))] = task.Result
	}

	log.Info().
		Int("reverted", len(results)).
		Int("errors", errors).
		Dur("elapsed", time.Since(start)).
		Msg("Batch revert complete")
	return results, ctx.Err()
}

// RevertFile reverts a single saved JSON document to script text.
func RevertFile(path string, opts Options) (string, error) {
	entry := filewalker.FileEntry{Path: path, Rel: filepath.Base(path)}
	return revertEntry(entry, opts)
}

func revertEntry(entry filewalker.FileEntry, opts Options) (string, error) {
	file, err := os.Open(entry.Path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	doc, err := script.DecodeDocument(file)
	if err != nil {
		log.Warn().Err(err).Str("file", entry.Path).Msg("Cannot decode document")
		return "", err
	}

	log.Debug().Str("file", entry.Rel).Msg("Reverting")
	text := script.Revert(doc)

	if opts.Save {
		rel := strings.TrimSuffix(entry.Rel, filepath.Ext(entry.Rel)) + ".txt"
		outPath := filepath.Join(opts.outputDir(), filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return "", err
		}
		if err := fileio.WriteText(outPath, text); err != nil {
			return "", err
		}
	}
	return text, nil
}

func saveResult(rel, ext string, data []byte, opts Options) error {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
	outPath := filepath.Join(opts.outputDir(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0644)
}
