package config

import (
	"fmt"
	"slices"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (expected one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.Sigfigs <= 0 || c.Sigfigs > 17 {
		return fmt.Errorf("sigfigs must be between 1 and 17, got %d", c.Sigfigs)
	}
	for name, stack := range c.Designs {
		if len(stack) == 0 {
			return fmt.Errorf("design stack %q lists no files", name)
		}
	}
	return nil
}
