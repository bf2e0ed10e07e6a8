package main

import (
	"os"

	"github.com/cadencehq/cadence/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
