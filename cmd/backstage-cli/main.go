// Package main is the entry point for the backstage CLI.
package main

import (
	"os"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/cmd/backstage-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
