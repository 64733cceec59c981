// Command dodola bias-corrects and downscales climate model output against
// reference data, reading and writing chunked array stores that independent
// worker processes can fill region by region.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
