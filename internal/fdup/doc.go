// Package fdup provides duplicate file detection.
//
// It walks directory trees using fastwalk, buckets regular files by exact
// size, checksums the members of every colliding size bucket on a bounded
// worker pool, and groups files whose full contents hash identically.
package fdup
