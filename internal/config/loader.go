package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "ONEIL_"

// flagKeys maps flag names that differ from their config keys.
var flagKeys = map[string]string{
	"search-path": "search_paths",
	"state":       "state_path",
}

// Load loads configuration with precedence flags > env vars > config file >
// defaults. cfgFile names the config file explicitly; otherwise one is
// searched for upward from startDir.
func Load(cfgFile, startDir string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if startDir == "" {
		startDir = "."
	}
	start, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}
	projectRoot := FindProjectRoot(start)

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" && projectRoot != "" {
		cfgFile = findConfigFile(projectRoot)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}
	if projectRoot == "" {
		projectRoot = start
	}

	// 3. Environment: ONEIL_STATE_PATH -> state_path
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were set explicitly
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			if f.Name == "no-history" {
				return "history", false
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile

	for i, p := range cfg.SearchPaths {
		cfg.SearchPaths[i] = resolvePathRelativeTo(p, projectRoot)
	}
	if cfg.StatePath != ":memory:" {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}
	for name, stack := range cfg.Designs {
		for i, p := range stack {
			stack[i] = resolvePathRelativeTo(p, projectRoot)
		}
		cfg.Designs[name] = stack
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DesignStack returns the design files of a named stack.
func (c *Config) DesignStack(name string) ([]string, error) {
	stack, ok := c.Designs[name]
	if !ok {
		return nil, fmt.Errorf("design stack %q is not defined in %s", name, FileNames[0])
	}
	return stack, nil
}

// findConfigFile returns the config file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindProjectRoot searches upward from startDir for a directory holding a
// config file. Returns "" if none is found within maxUpwardSearchLevels.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// loggerKey stores the logger in a context.
type loggerKey struct{}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// configKey stores the loaded configuration in a context.
type configKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the configuration from the command context, or the
// defaults if none was stored.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{
		Sigfigs:      DefaultSigfigs,
		OutputFormat: DefaultOutput,
		StatePath:    DefaultStateFile,
		History:      true,
	}
}
