// Package main is the entry point for the pcaplens capture analysis tool.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/pcaplens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
