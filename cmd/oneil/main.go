// Package main provides the oneil command.
package main

import (
	"os"

	"github.com/careweather/oneil/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
