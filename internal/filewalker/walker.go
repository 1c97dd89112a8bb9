// Package filewalker discovers game files under a directory tree.
package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// FileEntry is one discovered file ready for processing.
type FileEntry struct {
	// Path is the absolute path on disk.
	Path string
	// Rel is the slash-separated path relative to the walked root, used to
	// mirror the tree into the output directory.
	Rel string
}

// Walker traverses a directory tree and collects files by extension.
type Walker struct {
	// Ext is the extension to collect, lower case with the leading dot.
	Ext string
	// VariablesFirst orders files under script_values directories ahead of
	// the rest, so constant definitions are seen before their uses.
	VariablesFirst bool
}

// NewWalker returns a walker for script .txt files with variables-first
// ordering.
func NewWalker() *Walker {
	return &Walker{Ext: ".txt", VariablesFirst: true}
}

// Walk discovers all matching files under root. Unreadable paths are
// logged and skipped.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var first, rest []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), w.Ext) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot compute relative path")
			return nil
		}
		entry := FileEntry{Path: path, Rel: filepath.ToSlash(rel)}

		if w.VariablesFirst && strings.HasSuffix(filepath.Dir(path), "script_values") {
			first = append(first, entry)
		} else {
			rest = append(rest, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	entries := append(first, rest...)
	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}
