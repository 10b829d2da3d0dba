package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/astrolabe-oss/corelib/cmd/corelib/internal"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			if internal.IsVerbose() {
				fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			} else {
				fmt.Fprintln(os.Stderr, "Run with --verbose for stack trace")
			}
			os.Exit(internal.ExitError)
		}
	}()

	// Execute handles signal notification and maps errors to exit codes.
	os.Exit(Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
