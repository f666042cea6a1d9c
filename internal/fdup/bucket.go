package fdup

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// SizeBuckets maps an exact byte size to the files of that size, in
// discovery order.
type SizeBuckets map[uint64][]FileEntry

// BucketBySize consumes entries and groups them by size.
func BucketBySize(entries iter.Seq[FileEntry]) SizeBuckets {
	buckets := make(SizeBuckets)

	for entry := range entries {
		buckets[entry.Size] = append(buckets[entry.Size], entry)
	}

	return buckets
}

// Prune removes every bucket with fewer than two members, since such files
// cannot have a duplicate. It returns the number of files removed.
func (b SizeBuckets) Prune() int {
	removed := 0

	for size, entries := range b {
		if len(entries) < 2 {
			removed += len(entries)

			delete(b, size)
		}
	}

	return removed
}

// Candidates returns the number of files held across all buckets.
func (b SizeBuckets) Candidates() int {
	n := 0
	for _, entries := range b {
		n += len(entries)
	}

	return n
}

// Sizes returns the bucket sizes, largest first.
func (b SizeBuckets) Sizes() []uint64 {
	return slices.SortedFunc(maps.Keys(b), func(l, r uint64) int {
		return cmp.Compare(r, l)
	})
}
