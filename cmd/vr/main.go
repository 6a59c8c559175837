// Package main is the entry point for the vr CLI.
package main

import (
	"fmt"
	"os"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
