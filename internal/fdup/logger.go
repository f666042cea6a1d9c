package fdup

import (
	"fmt"
	"io"
	"os"
)

// logger provides conditional debug output.
type logger struct {
	enabled bool
	w       io.Writer
}

// newLogger returns a logger writing to stderr when enabled.
func newLogger(enabled bool) logger {
	return logger{enabled: enabled, w: os.Stderr}
}

// printf prints debug output if logging is enabled.
func (l logger) printf(format string, args ...any) {
	if l.enabled && l.w != nil {
		fmt.Fprintf(l.w, format, args...)
	}
}
