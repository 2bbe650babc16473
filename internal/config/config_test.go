package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/careweather/oneil/internal/testutil"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "oneil.yaml"), []byte(body), 0o644))
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice("search-path", nil, "")
	flags.Int("sigfigs", DefaultSigfigs, "")
	flags.String("output", DefaultOutput, "")
	flags.String("state", DefaultStateFile, "")
	flags.Bool("no-history", false, "")
	flags.Bool("verbose", false, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load("", dir, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultSigfigs, cfg.Sigfigs)
	assert.Equal(t, OutputText, cfg.OutputFormat)
	assert.True(t, cfg.History)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.SearchPaths)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_File(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `search_paths: [lib, /opt/oneil]
sigfigs: 5
output: markdown
designs:
  heavy: [designs/heavy.on, designs/base.on]
`)
	start := filepath.Join(root, "models", "power")
	require.NoError(t, os.MkdirAll(start, 0o755))

	cfg, err := Load("", start, nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "oneil.yaml"), cfg.ConfigFile)
	assert.Equal(t, []string{filepath.Join(root, "lib"), "/opt/oneil"}, cfg.SearchPaths)
	assert.Equal(t, 5, cfg.Sigfigs)
	assert.Equal(t, OutputMarkdown, cfg.OutputFormat)

	stack, err := cfg.DesignStack("heavy")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "designs", "heavy.on"),
		filepath.Join(root, "designs", "base.on"),
	}, stack)

	_, err = cfg.DesignStack("light")
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "sigfigs: 5\noutput: markdown\n")
	t.Setenv("ONEIL_SIGFIGS", "6")
	t.Setenv("ONEIL_OUTPUT", "json")

	t.Run("env over file", func(t *testing.T) {
		cfg, err := Load("", root, nil)
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Sigfigs)
		assert.Equal(t, OutputJSON, cfg.OutputFormat)
	})

	t.Run("flags over env", func(t *testing.T) {
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--sigfigs=3", "--no-history", "--search-path=a,b", "--state=:memory:"}))

		cfg, err := Load("", root, flags)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Sigfigs)
		assert.Equal(t, OutputJSON, cfg.OutputFormat)
		assert.False(t, cfg.History)
		assert.Equal(t, []string{filepath.Join(root, "a"), filepath.Join(root, "b")}, cfg.SearchPaths)
		assert.Equal(t, ":memory:", cfg.StatePath)
	})

	t.Run("unset flags keep lower layers", func(t *testing.T) {
		flags := newFlags()
		require.NoError(t, flags.Parse(nil))

		cfg, err := Load("", root, flags)
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Sigfigs)
		assert.True(t, cfg.History)
	})
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verbose: true\n"), 0o644))

	cfg, err := Load(path, t.TempDir(), nil)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, dir, cfg.ProjectRoot)

	_, err = Load(filepath.Join(dir, "missing.yaml"), dir, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		errSubstr string
	}{
		{name: "valid", cfg: Config{OutputFormat: OutputYAML, Sigfigs: 4}},
		{name: "unknown output", cfg: Config{OutputFormat: "html", Sigfigs: 4}, errSubstr: "unknown output format"},
		{name: "zero sigfigs", cfg: Config{OutputFormat: OutputText}, errSubstr: "sigfigs"},
		{name: "too many sigfigs", cfg: Config{OutputFormat: OutputText, Sigfigs: 40}, errSubstr: "sigfigs"},
		{
			name:      "empty design stack",
			cfg:       Config{OutputFormat: OutputText, Sigfigs: 4, Designs: map[string][]string{"x": {}}},
			errSubstr: `design stack "x"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}

	t.Run("load rejects invalid file", func(t *testing.T) {
		root := t.TempDir()
		writeConfig(t, root, "output: html\n")
		_, err := Load("", root, nil)
		assert.Error(t, err)
	})
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "sigfigs: 4\n")

	nine := filepath.Join(append([]string{root}, strings.Split("a/b/c/d/e/f/g/h/i", "/")...)...)
	require.NoError(t, os.MkdirAll(nine, 0o755))
	assert.Equal(t, root, FindProjectRoot(nine))

	ten := filepath.Join(nine, "j")
	require.NoError(t, os.MkdirAll(ten, 0o755))
	assert.Empty(t, FindProjectRoot(ten))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := testutil.NewTestLogger(t)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestGetConfig(t *testing.T) {
	def := GetConfig(context.Background())
	assert.Equal(t, DefaultSigfigs, def.Sigfigs)
	assert.Equal(t, OutputText, def.OutputFormat)
	assert.True(t, def.History)

	cfg := &Config{Sigfigs: 7}
	assert.Same(t, cfg, GetConfig(WithConfig(context.Background(), cfg)))
}
