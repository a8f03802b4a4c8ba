// Package main provides the leapsurvey command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapsurvey/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
