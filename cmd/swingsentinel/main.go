package main

import (
	"os"

	"SwingSentinel/cmd/swingsentinel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
