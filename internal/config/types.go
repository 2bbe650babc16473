// Package config loads project configuration from oneil.yaml, ONEIL_
// environment variables and command-line flags.
package config

// Config holds all configuration options.
type Config struct {
	// SearchPaths are searched for imported models and function modules
	// after the importing file's directory.
	SearchPaths  []string `koanf:"search_paths"`
	Sigfigs      int      `koanf:"sigfigs"`
	OutputFormat string   `koanf:"output"`
	StatePath    string   `koanf:"state_path"`
	History      bool     `koanf:"history"`
	Verbose      bool     `koanf:"verbose"`
	// Designs names ordered design stacks, highest priority first.
	Designs map[string][]string `koanf:"designs"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the file that was read, if any.
	ConfigFile string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultSigfigs   = 4
	DefaultOutput    = "text"
	DefaultStateFile = ".oneil/history.db"
)

// Output formats.
const (
	OutputText     = "text"
	OutputMarkdown = "markdown"
	OutputJSON     = "json"
	OutputYAML     = "yaml"
)

// OutputFormats lists the accepted values of "output".
var OutputFormats = []string{OutputText, OutputMarkdown, OutputJSON, OutputYAML}

// FileNames are the config file names looked for, in order.
var FileNames = []string{"oneil.yaml", "oneil.yml"}

func defaults() map[string]any {
	return map[string]any{
		"search_paths": []string{},
		"sigfigs":      DefaultSigfigs,
		"output":       DefaultOutput,
		"state_path":   DefaultStateFile,
		"history":      true,
		"verbose":      false,
	}
}
