// Package commands implements the oneil subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/careweather/oneil/internal/cli/output"
	"github.com/careweather/oneil/internal/config"
	"github.com/careweather/oneil/internal/extfunc"
	"github.com/careweather/oneil/internal/model"
	"github.com/careweather/oneil/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds the dependencies shared by commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Renderer  *output.Renderer
	Functions *extfunc.Loader
}

// NewCommandContext creates a CommandContext from the configuration and
// logger stored in the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat), cfg.Sigfigs)

	return &CommandContext{
		Cfg:       cfg,
		Logger:    logger,
		Renderer:  r,
		Functions: extfunc.NewLoader(logger),
	}
}

// NewLoader creates a model loader using the configured search paths. Each
// loader builds its own model graph.
func (c *CommandContext) NewLoader() *model.Loader {
	return model.NewLoader(model.Config{
		SearchPaths: c.Cfg.SearchPaths,
		Functions:   c.Functions,
		Logger:      c.Logger,
	})
}

// Designs returns the design files selected with --design followed by those
// of the --stack named in the configuration, highest priority first.
func (c *CommandContext) Designs(cmd *cobra.Command) ([]string, error) {
	return c.designs(cmd, "design", "stack")
}

func (c *CommandContext) designs(cmd *cobra.Command, fileFlag, stackFlag string) ([]string, error) {
	files, _ := cmd.Flags().GetStringSlice(fileFlag)
	stack, _ := cmd.Flags().GetString(stackFlag)
	if stack == "" {
		return files, nil
	}
	s, err := c.Cfg.DesignStack(stack)
	if err != nil {
		return nil, err
	}
	return append(files, s...), nil
}

// Build loads the model at path, applies designs and evaluates it. A model
// that loaded is returned even when evaluation failed.
func (c *CommandContext) Build(path string, designs []string) (*model.Model, error) {
	loader := c.NewLoader()
	m, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if len(designs) > 0 {
		return m, loader.ApplyDesigns(m, designs...)
	}
	return m, m.Evaluate()
}

// OpenStore opens the run history. It returns a nil store when history is
// disabled.
func (c *CommandContext) OpenStore() (state.Store, func(), error) {
	if !c.Cfg.History {
		return nil, func() {}, nil
	}
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// Record stores a run of command against m in the history and returns its
// id, or "" when history is disabled or could not be written. Recording
// failures are logged, not returned.
func (c *CommandContext) Record(command string, m *model.Model, report *model.TestReport, runErr error) string {
	store, cleanup, err := c.OpenStore()
	if err != nil {
		c.Logger.Warn("run history unavailable", slog.String("path", c.Cfg.StatePath), slog.Any("error", err))
		return ""
	}
	defer cleanup()
	if store == nil {
		return ""
	}

	run, err := store.CreateRun(command, m.Path, m.Design)
	if err != nil {
		c.Logger.Warn("failed to record run", slog.Any("error", err))
		return ""
	}

	var values []state.Value
	for _, p := range m.Summarize().Performance {
		v := output.NewParam(p.ID, p, c.Cfg.Sigfigs)
		values = append(values, state.Value{Ref: v.ID, Name: v.Name, Display: v.Value, Min: v.Min, Max: v.Max})
	}
	if err := store.RecordValues(run.ID, values); err != nil {
		c.Logger.Warn("failed to record values", slog.Any("error", err))
	}

	status, msg := state.RunStatusCompleted, ""
	if runErr != nil {
		status = state.RunStatusFailed
		msg = output.Flatten(runErr)[0].Error()
	}
	passed, total := 0, 0
	if report != nil {
		passed, total = report.Passed, report.Total
		if passed < total && runErr == nil {
			status = state.RunStatusFailed
			msg = fmt.Sprintf("%d of %d tests did not pass", total-passed, total)
		}
	}
	if err := store.CompleteRun(run.ID, status, passed, total, msg); err != nil {
		c.Logger.Warn("failed to complete run", slog.Any("error", err))
	}
	return run.ID
}

// failed reports diagnostics and returns the error a command exits with.
func (c *CommandContext) failed(path string, err error) error {
	c.Renderer.Diagnostics(err)
	n := len(output.Flatten(err))
	return fmt.Errorf("%s: %d error(s)", filepath.Base(path), n)
}
