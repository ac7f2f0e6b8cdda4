package cmd

import (
	"fmt"
	"io"
)

// writerReporter prints hierarchy messages as one line each.
type writerReporter struct {
	w io.Writer
}

func (r writerReporter) Error(message string) {
	fmt.Fprintf(r.w, "lsptree: %s\n", message)
}

func (r writerReporter) ClearStatus() {}
