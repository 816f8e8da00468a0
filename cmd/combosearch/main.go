// Package main is the combosearch CLI: it runs one bounded combination search
// from the command line and prints each attempt and the final result.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
