// The main package for the musigraph executable.
package main

import (
	"github.com/musigraph/crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
