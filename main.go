package main

import (
	"os"

	"github.com/prodiplan/essaygrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
