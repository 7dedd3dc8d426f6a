// Package main is the entry point for the note sorting engine.
package main

import (
	"fmt"
	"os"

	"github.com/cashm/note-sorter/cmd/notesorter/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
