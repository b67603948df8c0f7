package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		var failures *checkFailuresError
		if errors.As(err, &failures) {
			// The checklist already printed its report; the exit code
			// carries the failure count for automation.
			os.Exit(failures.count)
		}
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
