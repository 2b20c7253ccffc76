package app

import (
	"fmt"
	"os"
)

// ExitOnError prints an error to stderr and exits non-zero. Fatal startup
// conditions (no config, unreachable hosts, incomplete model catalog) all
// funnel through here.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
