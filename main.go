package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

// version is set at link time.
var version = "dev"

func main() {
	debug.SetGCPercent(300)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gowcsp: %v\n", err)
		os.Exit(1)
	}
}
