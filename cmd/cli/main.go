// Package main is the entry point for the ontomaint CLI binary.
package main

import (
	"os"

	cli "ontomaint/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
