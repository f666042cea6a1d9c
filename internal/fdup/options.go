package fdup

import (
	"time"
)

// FileEntry is a regular file discovered by the walker.
type FileEntry struct {
	// Path is the file path, joined onto the walk root.
	Path string `json:"path"`
	// Size is the size in bytes at the time of the walk.
	Size uint64 `json:"size"`
}

// Options configures duplicate detection and CLI behavior.
type Options struct {
	// Path is the root directory to search.
	Path string
	// Excludes contains regex patterns to exclude.
	Excludes []string
	// MinSize is the minimum file size in bytes.
	MinSize uint64
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// Threads is the checksum worker count (0=one per CPU).
	Threads int
	// Algorithm names the checksum algorithm.
	Algorithm string
	// Sort indicates whether group members are sorted lexicographically.
	Sort bool
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Debug indicates whether debug output is enabled.
	Debug bool
	// Output represents output format (table or json).
	Output string
}

// Phase identifies the pipeline stage a Progress update refers to.
type Phase string

const (
	// PhaseScanning is reported while the walker is running.
	PhaseScanning Phase = "scanning"
	// PhaseHashing is reported while candidate files are checksummed.
	PhaseHashing Phase = "hashing"
)

// Progress is a snapshot passed to the progress hook.
type Progress struct {
	Phase Phase
	// Files and Bytes count walked regular files.
	Files int64
	Bytes int64
	// Candidates is the number of files that need a checksum.
	Candidates int64
	// Hashed is the number of candidates checksummed so far.
	Hashed int64
}

// Result holds the outcome of a duplicate search.
type Result struct {
	// Groups are the duplicate groups found, largest files first.
	Groups []DuplicateGroup `json:"groups"`
	// Errors are the non-fatal walk and read errors collected during the run.
	Errors []error `json:"-"`
	// FileCount is the number of regular files walked.
	FileCount int64 `json:"file_count"`
	// TotalBytes is the cumulative size of all walked files.
	TotalBytes int64 `json:"total_bytes"`
	// CandidateCount is the number of files sharing a size with another file.
	CandidateCount int64 `json:"candidate_count"`
	// HashedCount is the number of files successfully checksummed.
	HashedCount int64 `json:"hashed_count"`
	// HashedBytes is the number of bytes read while checksumming.
	HashedBytes int64 `json:"hashed_bytes"`
	// WastedBytes is the space taken by redundant copies.
	WastedBytes uint64 `json:"wasted_bytes"`
	// Algorithm is the checksum algorithm used.
	Algorithm string `json:"algorithm"`
	// Threads is the resolved worker count.
	Threads int `json:"threads"`
	// Elapsed is the total time taken.
	Elapsed time.Duration `json:"elapsed"`
}
