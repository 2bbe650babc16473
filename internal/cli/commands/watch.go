package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/careweather/oneil/internal/extfunc"
	"github.com/careweather/oneil/internal/parser"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce is how long the watcher waits for writes to settle.
const watchDebounce = 100 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "watch <model>",
		Short: "Re-evaluate a model whenever model or function files change",
		Long: `Evaluate a model, then watch its directory and the configured search paths
and evaluate it again whenever a model (.on) or function module (.star) file
is written. Stop with Ctrl-C.`,
		Example: `  oneil watch rover.on --all`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runWatch(ctx, cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Show every parameter, not only performance parameters")
	cmd.Flags().StringArrayVarP(&opts.Exprs, "expr", "e", nil, "Evaluate an expression against the model (repeatable)")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, opts *EvalOptions) error {
	c := NewCommandContext(cmd)

	designs, err := c.Designs(cmd)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for _, dir := range watchDirs(abs, designs, c.Cfg.SearchPaths) {
		if err := watcher.Add(dir); err != nil {
			c.Logger.Warn("cannot watch directory", slog.String("dir", dir), slog.Any("error", err))
		}
	}

	evaluate := func() {
		m, err := c.Build(abs, designs)
		if m == nil {
			c.Renderer.Diagnostics(err)
			return
		}
		// Failures are already reported; keep watching.
		_ = c.renderEval(m, err, opts, "watch")
	}
	evaluate()

	// The timer starts stopped; each relevant event re-arms it.
	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if ext := filepath.Ext(event.Name); ext != parser.Ext && ext != extfunc.Ext {
				continue
			}
			c.Logger.Debug("change detected", slog.String("file", event.Name))
			debounce.Reset(watchDebounce)
		case <-debounce.C:
			c.Renderer.Println()
			// Function modules are cached by path; a fresh loader picks up edits.
			c.Functions = extfunc.NewLoader(c.Logger)
			evaluate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}

// watchDirs lists the directories holding the model, its design files and
// the search paths, without duplicates.
func watchDirs(model string, designs, searchPaths []string) []string {
	dirs := []string{filepath.Dir(model)}
	for _, d := range designs {
		if abs, err := filepath.Abs(d); err == nil {
			dirs = append(dirs, filepath.Dir(abs))
		}
	}
	dirs = append(dirs, searchPaths...)

	var out []string
	for _, d := range dirs {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}
