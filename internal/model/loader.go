package model

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/internal/param"
	"github.com/careweather/oneil/internal/parser"
	"github.com/careweather/oneil/pkg/units"
)

// Functions supplies the external functions of an imported module.
type Functions interface {
	// Load returns the functions exported by module, searching dirs in
	// order.
	Load(module string, dirs []string) (map[string]param.Func, error)
}

// Config holds loader configuration.
type Config struct {
	// SearchPaths are searched, after the importing file's directory, for
	// sub-model files and function modules.
	SearchPaths []string
	// Functions resolves "import" lines. Nil rejects every import.
	Functions Functions
	Units     *units.Registry
	Logger    *slog.Logger
}

// Loader reads a model file and everything it imports.
type Loader struct {
	searchPaths []string
	functions   Functions
	parser      *parser.Parser
	logger      *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(cfg Config) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reg := cfg.Units
	if reg == nil {
		reg = units.Default
	}
	return &Loader{
		searchPaths: cfg.SearchPaths,
		functions:   cfg.Functions,
		parser:      &parser.Parser{Units: reg},
		logger:      logger,
	}
}

// Load parses the model at path and its sub-models, then checks that every
// reference names a parameter, constant or function. The model is not yet
// evaluated.
func (l *Loader) Load(path string) (*Model, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		e := diag.Newf(diag.KindModelLoading, "File %q does not exist.", filepath.Base(path))
		e.Cause = err
		return nil, e
	}

	m, err := l.load(abs, nil)
	if err != nil {
		return nil, err
	}
	if err := m.CheckNamespace(); err != nil {
		return nil, err
	}
	return m, nil
}

// Build loads the model at path and evaluates it. Evaluation errors are
// returned together with the model so the resolved part can still be
// shown.
func (l *Loader) Build(path string) (*Model, error) {
	m, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	return m, m.Evaluate()
}

// load parses one file. stack holds the files currently being imported,
// outermost first.
func (l *Loader) load(path string, stack []string) (*Model, error) {
	f, err := l.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}

	m := newModel(f, l.logger)
	stack = append(stack, path)
	dirs := l.dirs(path)

	var errs diag.List
	for _, imp := range f.Imports {
		if err := l.importFunctions(m, imp, dirs); err != nil {
			errs = append(errs, err)
		}
	}

	for _, u := range f.Uses {
		sub, err := l.use(m, u, dirs, stack)
		if err != nil {
			errs = append(errs, flatten(err)...)
			continue
		}
		m.Submodels[u.Symbol] = sub
		m.Symbols = append(m.Symbols, u.Symbol)
	}
	if len(errs) > 0 {
		return nil, errs.Err()
	}

	l.logger.Debug("loaded model",
		slog.String("path", path),
		slog.Int("params", len(m.Params)),
		slog.Int("submodels", len(m.Submodels)),
		slog.Int("tests", len(m.Tests)))
	return m, nil
}

func (l *Loader) use(m *Model, u *parser.Use, dirs []string, stack []string) (*Submodel, error) {
	sub := &Submodel{
		Symbol: u.Symbol,
		Inputs: u.Inputs,
		Pos:    u.Pos,
		Source: u.Source,
	}

	if u.IsFrom() {
		// from a.b use c as d: walk a, then b, and bind b's sub-model c.
		path := append(slices.Clone(u.Via), u.Model)
		target, err := m.Submodel(path...)
		if err != nil {
			e := diag.Newf(diag.KindModelLoading, "Cannot import %s from %s.", u.Model, strings.Join(u.Via, "."))
			e.Cause = err
			return nil, e.At(u.Pos, u.Source)
		}
		sub.Model = target
		sub.Path = path
		return sub, nil
	}

	file, ok := l.find(u.Model+parser.Ext, dirs)
	if !ok {
		return nil, diag.Newf(diag.KindModelLoading, "File %q does not exist.", u.Model+parser.Ext).At(u.Pos, u.Source)
	}
	if i := slices.Index(stack, file); i >= 0 {
		chain := make([]string, 0, len(stack)-i+1)
		for _, p := range stack[i:] {
			chain = append(chain, modelName(p))
		}
		chain = append(chain, u.Model)
		return nil, diag.Newf(diag.KindModelLoading, "Circular import: %s.", strings.Join(chain, " -> ")).At(u.Pos, u.Source)
	}

	// Every use gets its own instance so designs applied through one
	// symbol never leak into another.
	child, err := l.load(file, stack)
	if err != nil {
		return nil, importedAt(err, u)
	}
	sub.Model = child
	sub.Path = []string{u.Symbol}
	return sub, nil
}

func (l *Loader) importFunctions(m *Model, imp *parser.Import, dirs []string) *diag.Error {
	if l.functions == nil {
		return diag.Newf(diag.KindModelLoading, "Cannot import %s: external functions are disabled.", imp.Module).At(imp.Pos, imp.Source)
	}
	funcs, err := l.functions.Load(imp.Module, dirs)
	if err != nil {
		return diag.Wrap(diag.KindModelLoading, err, "Failed to import "+imp.Module).At(imp.Pos, imp.Source)
	}
	for name, fn := range funcs {
		m.funcs[name] = fn
		m.funcs[imp.Module+"."+name] = fn
	}
	l.logger.Debug("imported functions", slog.String("module", imp.Module), slog.Int("count", len(funcs)))
	return nil
}

// dirs lists the directories searched from a file: its own, then the
// configured search paths.
func (l *Loader) dirs(path string) []string {
	return append([]string{filepath.Dir(path)}, l.searchPaths...)
}

func (l *Loader) find(name string, dirs []string) (string, bool) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return candidate, true
			}
			return abs, true
		}
	}
	return "", false
}

func modelName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), parser.Ext)
}

// flatten returns the diagnostics held in err.
func flatten(err error) diag.List {
	var list diag.List
	if errors.As(err, &list) {
		return list
	}
	var d *diag.Error
	if errors.As(err, &d) {
		return diag.List{d}
	}
	return diag.List{diag.Wrap(diag.KindModelLoading, err, "Failed to load model")}
}

// importedAt notes the import line on every diagnostic from a sub-model.
func importedAt(err error, u *parser.Use) error {
	list := flatten(err)
	for _, e := range list {
		e.WithNote(fmt.Sprintf("imported at %s", u.Pos))
	}
	return list.Err()
}
