package main

import (
	"os"

	"github.com/codeforiati/gbstats/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
