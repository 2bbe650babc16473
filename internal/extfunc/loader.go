// Package extfunc provides the external functions a model brings in with
// "import <module>". A module is a Starlark file, <module>.star, found in
// the importing model's directory or a search path. Every exported
// callable (names not starting with _) becomes a function of the model.
package extfunc

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/careweather/oneil/internal/param"
	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
)

// Ext is the function module extension.
const Ext = ".star"

// Loader finds and executes function modules. Loaded modules are cached
// by path, so a module imported by several models runs once.
type Loader struct {
	logger *slog.Logger

	mu      sync.Mutex
	modules map[string]*Module
}

// Module is an executed Starlark file.
type Module struct {
	Name    string
	Path    string
	Exports starlark.StringDict
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		logger:  logger,
		modules: make(map[string]*Module),
	}
}

// ErrNotFound is returned when no directory holds the module.
var ErrNotFound = errors.New("module not found")

// Load returns the functions of module, searching dirs in order.
func (l *Loader) Load(module string, dirs []string) (map[string]param.Func, error) {
	if err := validateName(module); err != nil {
		return nil, &LoadError{File: module + Ext, Message: err.Error()}
	}

	path, ok := find(module+Ext, dirs)
	if !ok {
		return nil, fmt.Errorf("%s%s: %w", module, Ext, ErrNotFound)
	}
	mod, err := l.module(module, path)
	if err != nil {
		return nil, err
	}

	funcs := make(map[string]param.Func)
	for name, v := range mod.Exports {
		fn, ok := v.(starlark.Callable)
		if !ok {
			continue
		}
		funcs[name] = wrap(module+"."+name, fn)
	}
	return funcs, nil
}

func (l *Loader) module(name, path string) (*Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if mod, ok := l.modules[path]; ok {
		return mod, nil
	}
	mod, err := loadFile(name, path)
	if err != nil {
		return nil, err
	}
	l.modules[path] = mod
	l.logger.Debug("loaded function module",
		slog.String("module", name),
		slog.String("path", path),
		slog.Int("exports", len(mod.Exports)))
	return mod, nil
}

// loadFile executes a single .star file and keeps its exports.
func loadFile(name, path string) (*Module, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is resolved from the model's search directories
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	thread := &starlark.Thread{
		Name:  "load:" + name,
		Print: func(_ *starlark.Thread, _ string) {},
	}
	predeclared := starlark.StringDict{"math": starlarkmath.Module}

	globals, err := starlark.ExecFile(thread, path, content, predeclared) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}

	exports := make(starlark.StringDict)
	for n, v := range globals {
		if !strings.HasPrefix(n, "_") {
			exports[n] = v
		}
	}
	return &Module{Name: name, Path: path, Exports: exports}, nil
}

func find(name string, dirs []string) (string, bool) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// validateName checks that a module name is a plain identifier.
func validateName(name string) error {
	if name == "" {
		return errors.New("module name cannot be empty")
	}
	for i, r := range name {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		digit := r >= '0' && r <= '9'
		if !letter && (i == 0 || !digit) {
			return fmt.Errorf("invalid module name: %s", name)
		}
	}
	return nil
}

// LoadError reports a module that could not be executed.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", filepath.Base(e.File), e.Message)
}
