// Package cli wires the parse, revert, locales and watch commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ckscript/internal/batch"
	"ckscript/internal/config"
	"ckscript/internal/locale"
	"ckscript/internal/script"
	"ckscript/internal/watch"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var debug bool

	rootCmd := &cobra.Command{
		Use:   "ckscript",
		Short: "Parse Paradox script files to JSON and revert JSON back to script",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(revertCmd())
	rootCmd.AddCommand(localesCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseCmd() *cobra.Command {
	var output string
	var save, comments bool

	cmd := &cobra.Command{
		Use:   "parse <path>",
		Short: "Parse a script file or directory into JSON documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], output, save, comments)
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "output directory for parsed documents")
	cmd.Flags().BoolVar(&save, "save", false, "save parsed documents as JSON")
	cmd.Flags().BoolVar(&comments, "comments", false, "keep comments in parsed documents")
	return cmd
}

func revertCmd() *cobra.Command {
	var output string
	var save bool

	cmd := &cobra.Command{
		Use:   "revert <path>",
		Short: "Revert a JSON document or directory back to script text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevert(args[0], output, save)
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "output directory for reverted files")
	cmd.Flags().BoolVar(&save, "save", false, "save reverted script files")
	return cmd
}

func localesCmd() *cobra.Command {
	var language string
	var save bool

	cmd := &cobra.Command{
		Use:   "locales <path>",
		Short: "Extract localisation strings for one language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocales(args[0], language, save)
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "target language, e.g. english")
	cmd.Flags().BoolVar(&save, "save", false, "save locales to _locales.json")
	return cmd
}

func watchCmd() *cobra.Command {
	var comments bool

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Re-parse script files as they change and report errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], comments)
		},
	}
	cmd.Flags().BoolVar(&comments, "comments", false, "keep comments in parsed documents")
	return cmd
}

// runParse handles the `parse` command. A directory parses as one batch
// with a shared variable table persisted to a sidecar file.
func runParse(path, output string, save, comments bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	opts := batch.Options{
		OutputDir:      firstOf(output, cfg.OutputDir),
		Save:           save,
		Comments:       comments || cfg.Comments,
		ForcedListKeys: cfg.ForcedListKeys,
	}

	vars := script.NewVarTable()
	if err := vars.Load(cfg.VariablesFile); err != nil {
		log.Warn().Err(err).Str("file", cfg.VariablesFile).Msg("Cannot load variables")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}

	if info.IsDir() {
		if _, err := batch.ParseAll(ctx, path, vars, opts); err != nil {
			return err
		}
	} else {
		if _, err := batch.ParseFile(path, vars, opts); err != nil {
			return err
		}
	}

	if vars.Len() > 0 {
		if err := vars.Save(cfg.VariablesFile); err != nil {
			log.Warn().Err(err).Str("file", cfg.VariablesFile).Msg("Cannot save variables")
		}
	}
	return nil
}

// runRevert handles the `revert` command.
func runRevert(path, output string, save bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	opts := batch.Options{
		OutputDir: firstOf(output, cfg.OutputDir),
		Save:      save,
		Workers:   cfg.WorkerCount,
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}

	if info.IsDir() {
		_, err = batch.RevertAll(ctx, path, opts)
		return err
	}

	text, err := batch.RevertFile(path, opts)
	if err != nil {
		return err
	}
	if !save {
		fmt.Println(text)
	}
	return nil
}

// runLocales handles the `locales` command.
func runLocales(path, language string, save bool) error {
	cfg := config.Load()

	locales, err := locale.NewReader(firstOf(language, cfg.Language)).ReadAll(path)
	if err != nil {
		return err
	}
	if save {
		if err := locale.Save(locales, "_locales.json"); err != nil {
			return fmt.Errorf("save locales: %w", err)
		}
	}
	return nil
}

// runWatch handles the `watch` command; it blocks until interrupted.
func runWatch(path string, comments bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	opts := batch.Options{
		Comments:       comments || cfg.Comments,
		ForcedListKeys: cfg.ForcedListKeys,
	}

	vars := script.NewVarTable()
	if _, err := batch.ParseAll(ctx, path, vars, opts); err != nil {
		return err
	}

	results, err := watch.NewWatcher(path, vars, opts).Run(ctx)
	if err != nil {
		return err
	}
	for range results {
		// Outcomes are logged by the watcher; drain until shutdown.
	}
	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
