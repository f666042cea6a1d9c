package fdup

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSizeChanged is reported when the number of bytes read from a file
// differs from the size recorded during the walk.
var ErrSizeChanged = errors.New("file size changed since it was walked")

// ErrNotDirectory is reported when the root path is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// ConfigError is a fatal error about the run configuration, such as a missing
// or unreadable root. It aborts the run before any traversal.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("accessing path %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// WalkError is a per-entry traversal failure. The walk continues past it.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("walking %q: %v", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error { return e.Err }

// ReadError is a per-file checksum failure. The file is excluded from its
// size bucket and the remaining members are still compared.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %q: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ErrorLog collects non-fatal errors from concurrent walkers and workers.
type ErrorLog struct {
	mu   sync.Mutex
	errs []error
}

// Add records err. Nil errors are ignored.
func (l *ErrorLog) Add(err error) {
	if err == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.errs = append(l.errs, err)
}

// Errors returns a copy of the collected errors in arrival order.
func (l *ErrorLog) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]error, len(l.errs))
	copy(out, l.errs)

	return out
}

// Len returns the number of collected errors.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.errs)
}
