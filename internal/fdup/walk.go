package fdup

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charlievieth/fastwalk"
)

// entryBuffer bounds how far the walker may run ahead of the bucketer.
const entryBuffer = 256

// WalkOptions filters the files a Walker produces.
type WalkOptions struct {
	// Excludes are matched against slash-separated paths.
	Excludes []*regexp.Regexp
	// MinSize skips files smaller than this many bytes.
	MinSize uint64
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
}

// Walker enumerates regular files beneath a root directory.
// Symbolic links are never followed.
type Walker struct {
	root   string
	opts   WalkOptions
	errs   *ErrorLog
	log    logger
	counts *counters
	err    error
}

// NewWalker creates a Walker for root. Per-entry failures are recorded in errs.
func NewWalker(root string, opts WalkOptions, errs *ErrorLog) *Walker {
	return &Walker{
		root:   filepath.Clean(root),
		opts:   opts,
		errs:   errs,
		counts: &counters{},
	}
}

// Entries returns a single-pass sequence of the regular files under the root.
// The walk runs concurrently with the consumer and is bounded by a small
// buffer, so the tree is never held in memory at once. Stopping the iteration
// early stops the walk.
func (w *Walker) Entries(ctx context.Context) iter.Seq[FileEntry] {
	return func(yield func(FileEntry) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		entries := make(chan FileEntry, entryBuffer)
		done := make(chan error, 1)

		go func() {
			defer close(entries)
			done <- w.walk(ctx, entries)
		}()

		stopped := false

		for entry := range entries {
			if !yield(entry) {
				stopped = true

				cancel()

				// Drain so the walk goroutine can exit.
				for range entries {
				}

				break
			}
		}

		if err := <-done; err != nil && !stopped {
			w.err = err
		}
	}
}

// Err returns the fatal error that ended the last iteration, if any.
func (w *Walker) Err() error {
	return w.err
}

//nolint:varnamelen // d is standard for DirEntry
func (w *Walker) walk(ctx context.Context, out chan<- FileEntry) error {
	conf := &fastwalk.Config{
		Follow: false, // Don't follow symlinks
	}

	return fastwalk.Walk(conf, w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.printf("[debug]: error accessing path %s: %v\n", path, err)
			w.errs.Add(&WalkError{Path: path, Err: err})

			return nil
		}

		// Check cancellation periodically
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path != w.root {
			if skip, ret := w.filter(path, d); skip {
				return ret
			}
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.log.printf("[debug]: error reading metadata for %s: %v\n", path, err)
			w.errs.Add(&WalkError{Path: path, Err: err})

			return nil
		}

		size := uint64(info.Size()) //nolint:gosec // Regular file sizes are never negative
		if size < w.opts.MinSize {
			return nil
		}

		w.counts.files.Add(1)
		w.counts.bytes.Add(info.Size())

		select {
		case out <- FileEntry{Path: path, Size: size}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// filter applies the depth and exclusion rules. It reports whether the entry
// is to be skipped, along with the value the walk callback must return.
func (w *Walker) filter(path string, d fs.DirEntry) (bool, error) {
	if w.opts.Depth > 0 {
		depth := calculateDepth(path, w.root)
		if depth > w.opts.Depth {
			w.log.printf("[debug]: skipping (beyond depth %d): %s\n", w.opts.Depth, path)

			if d.IsDir() {
				return true, filepath.SkipDir
			}

			return true, nil
		}

		// Children of a directory at the limit are all too deep.
		if d.IsDir() && depth == w.opts.Depth {
			return true, filepath.SkipDir
		}
	}

	if re := shouldExcludeByPattern(path, w.opts.Excludes); re != nil {
		w.log.printf("[debug]: excluding %s\n", filepath.ToSlash(path))
		w.log.printf("	 matched regex: %s\n", re.String())

		if d.IsDir() {
			return true, filepath.SkipDir
		}

		return true, nil
	}

	return false, nil
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// shouldExcludeByPattern checks if path matches any exclusion regex.
func shouldExcludeByPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// compileExcludes compiles exclusion patterns.
func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		out = append(out, re)
	}

	return out, nil
}
