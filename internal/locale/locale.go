// Package locale extracts localisation strings from the game's .yml files.
package locale

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"ckscript/internal/fileio"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// reEntry matches one `key:N "value"` localisation line.
var reEntry = regexp.MustCompile(`^\s*([^:#]+):\d+\s"(.+)"\s*$`)

// Reader collects localisation entries for a single language.
type Reader struct {
	Language string
}

// NewReader returns a reader for the given language, e.g. "english".
func NewReader(language string) *Reader {
	return &Reader{Language: language}
}

// ReadAll walks root for .yml files whose header names the reader's
// language and merges their entries into one flat map. Later files
// overwrite earlier keys, matching the game's load order behavior.
func (r *Reader) ReadAll(root string) (map[string]string, error) {
	locales := make(map[string]string)
	files := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".yml") {
			return nil
		}

		text, err := fileio.ReadText(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot read locale file")
			return nil
		}

		scanner := bufio.NewScanner(strings.NewReader(text))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		if !scanner.Scan() || !strings.Contains(scanner.Text(), r.Language) {
			return nil
		}

		files++
		for scanner.Scan() {
			if m := reEntry.FindStringSubmatch(scanner.Text()); m != nil {
				locales[m[1]] = m[2]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk locale directory: %w", err)
	}

	log.Info().Int("files", files).Int("entries", len(locales)).Str("language", r.Language).Msg("Locales loaded")
	return locales, nil
}

// Save writes the locale map as sorted JSON.
func Save(locales map[string]string, path string) error {
	data, err := json.MarshalIndent(locales, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
