// Package main is the entry point of the SalesDesk CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/salesdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
