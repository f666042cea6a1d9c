package fdup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// counters tracks pipeline progress. Fields are updated concurrently by the
// walker and the checksum workers.
type counters struct {
	files       atomic.Int64
	bytes       atomic.Int64
	candidates  atomic.Int64
	hashed      atomic.Int64
	hashedBytes atomic.Int64
	hashing     atomic.Bool
}

// snapshot returns the current progress.
func (c *counters) snapshot() Progress {
	phase := PhaseScanning
	if c.hashing.Load() {
		phase = PhaseHashing
	}

	return Progress{
		Phase:      phase,
		Files:      c.files.Load(),
		Bytes:      c.bytes.Load(),
		Candidates: c.candidates.Load(),
		Hashed:     c.hashed.Load(),
	}
}

// startProgressReporter invokes hook on each tick until ctx is done.
//
//nolint:varnamelen // c is idiomatic for counters
func startProgressReporter(ctx context.Context, c *counters, hook func(Progress), interval time.Duration) {
	if hook == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// validateRoot checks that path is an existing, readable directory.
func validateRoot(path string) error {
	if path == "" {
		return &ConfigError{Path: path, Err: errors.New("no root directory given")}
	}

	info, err := os.Stat(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	if !info.IsDir() {
		return &ConfigError{Path: path, Err: ErrNotDirectory}
	}

	dir, err := os.Open(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	if _, err := dir.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		_ = dir.Close()

		return &ConfigError{Path: path, Err: err}
	}

	return dir.Close()
}

// Run searches the directory tree at opt.Path for duplicate files.
//
// Files are bucketed by size, and only buckets with at least two members are
// checksummed, on a pool of opt.Threads workers. Files whose full contents hash
// identically are returned as a DuplicateGroup. If opt.Sort is set, the
// members of each group are sorted lexicographically.
//
// A missing or unreadable root aborts the run with a *ConfigError. Failures on
// individual entries or files never abort the run. They are returned in
// Result.Errors as *WalkError or *ReadError.
//
// The run can be cancelled via ctx. Progress updates are sent to progressHook
// if provided.
func Run(ctx context.Context, opt Options, progressHook func(Progress)) (*Result, error) {
	log := newLogger(opt.Debug)

	if opt.Path != "" {
		opt.Path = filepath.Clean(opt.Path)
	}

	if err := validateRoot(opt.Path); err != nil {
		return nil, err
	}

	algorithm, err := ParseAlgorithm(opt.Algorithm)
	if err != nil {
		return nil, err
	}

	excludes, err := compileExcludes(opt.Excludes)
	if err != nil {
		return nil, err
	}

	for _, re := range excludes {
		log.printf("[debug]: exclude regex: %s\n", re.String())
	}

	errs := &ErrorLog{}
	counts := &counters{}

	// Create child context to ensure progress reporter cleanup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startProgressReporter(ctx, counts, progressHook, opt.ProgressInterval)

	start := time.Now()

	walker := NewWalker(opt.Path, WalkOptions{
		Excludes: excludes,
		MinSize:  opt.MinSize,
		Depth:    opt.Depth,
	}, errs)
	walker.log = log
	walker.counts = counts

	buckets := BucketBySize(walker.Entries(ctx))
	if err := walker.Err(); err != nil {
		return nil, fmt.Errorf("walking %q: %w", opt.Path, err)
	}

	unique := buckets.Prune()
	candidates := buckets.Candidates()

	log.printf("[debug]: walked %d files, ignoring %d with a unique size\n", counts.files.Load(), unique)
	log.printf("[debug]: checksumming %d files in %d size buckets\n", candidates, len(buckets))

	counts.candidates.Store(int64(candidates))
	counts.hashing.Store(true)

	pool := NewPool(opt.Threads)

	log.printf("[debug]: using %d workers, algorithm %s\n", pool.Size(), algorithm)

	engine := NewEngine(pool, algorithm, errs)
	engine.log = log
	engine.counts = counts

	bySize, err := engine.Checksum(ctx, buckets)
	if err != nil {
		return nil, fmt.Errorf("checksumming: %w", err)
	}

	groups := Collect(bySize)

	result := &Result{
		Errors:         errs.Errors(),
		FileCount:      counts.files.Load(),
		TotalBytes:     counts.bytes.Load(),
		CandidateCount: int64(candidates),
		HashedCount:    counts.hashed.Load(),
		HashedBytes:    counts.hashedBytes.Load(),
		Algorithm:      string(algorithm),
		Threads:        pool.Size(),
	}

	for i := range groups {
		if opt.Sort {
			groups[i] = groups[i].Sorted()
		}

		result.WastedBytes += groups[i].Wasted()
	}

	result.Groups = groups
	result.Elapsed = time.Since(start)

	return result, nil
}
