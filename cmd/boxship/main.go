// Package main runs the boxship CLI.
package main

import (
	"fmt"
	"os"

	"github.com/felipi-hub/boxship-sistema/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
