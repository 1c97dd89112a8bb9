// Package watch re-parses script files as they change on disk, giving
// modders immediate feedback on syntax errors.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ckscript/internal/batch"
	"ckscript/internal/script"
	"ckscript/internal/textutil"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Result reports the outcome of one re-parse triggered by a change.
type Result struct {
	Path string
	Doc  *script.Block
	Err  error
}

// Watcher monitors a directory tree for .txt changes and re-parses the
// changed file after a debounce window.
type Watcher struct {
	root     string
	vars     *script.VarTable
	opts     batch.Options
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher returns a watcher over root. Parses share the given
// variable table so references keep resolving across edits.
func NewWatcher(root string, vars *script.VarTable, opts batch.Options) *Watcher {
	return &Watcher{
		root:     root,
		vars:     vars,
		opts:     opts,
		debounce: 500 * time.Millisecond,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled. Each settled change is
// re-parsed and reported on the returned channel; the channel closes
// when the watcher stops.
func (w *Watcher) Run(ctx context.Context) (<-chan Result, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// fsnotify does not recurse; register every directory.
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	results := make(chan Result, 16)
	log.Info().Str("root", w.root).Msg("Watching for changes")

	go func() {
		defer close(results)
		defer fsw.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 {
					// New directories need registering too.
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						fsw.Add(event.Name)
						continue
					}
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
					continue
				}
				w.schedule(ctx, event.Name, results)

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("Watcher error")
			}
		}
	}()

	return results, nil
}

// schedule resets the debounce timer for a path; the parse fires once
// writes have settled.
func (w *Watcher) schedule(ctx context.Context, path string, results chan<- Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		doc, err := batch.ParseFile(path, w.vars, w.opts)
		if err != nil {
			if perr, ok := err.(*script.ParseError); ok {
				log.Error().
					Str("file", path).
					Int("line", perr.Line).
					Str("text", textutil.Truncate(perr.Text, 80)).
					Msg("Parse error")
			} else {
				log.Error().Err(err).Str("file", path).Msg("Parse failed")
			}
		} else {
			log.Info().Str("file", path).Msg("Parsed cleanly")
		}

		select {
		case results <- Result{Path: path, Doc: doc, Err: err}:
		case <-ctx.Done():
		}
	})
}
