// Package main provides the CLI entry point for FeatSQL.
package main

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/featsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
