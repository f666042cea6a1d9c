package fdup

import (
	"cmp"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
)

// ChecksumGroups maps a checksum to the files of one size bucket that share it.
type ChecksumGroups map[digest.Digest][]FileEntry

// DuplicateGroup is a set of two or more files with identical size and content.
type DuplicateGroup struct {
	// Size is the size of every file in the group.
	Size uint64 `json:"size"`
	// Checksum is the digest shared by every file in the group.
	Checksum digest.Digest `json:"checksum"`
	// Files are the members of the group.
	Files []FileEntry `json:"files"`
}

// Paths returns the paths of the group members.
func (g DuplicateGroup) Paths() []string {
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = f.Path
	}

	return paths
}

// Wasted returns the bytes taken by all but one copy.
func (g DuplicateGroup) Wasted() uint64 {
	if len(g.Files) < 2 {
		return 0
	}

	return g.Size * uint64(len(g.Files)-1)
}

// Sorted returns a copy of g with members ordered by byte-wise path comparison.
func (g DuplicateGroup) Sorted() DuplicateGroup {
	g.Files = slices.Clone(g.Files)

	slices.SortFunc(g.Files, func(l, r FileEntry) int {
		return strings.Compare(l.Path, r.Path)
	})

	return g
}

// Collect gathers every checksum group with at least two members into the
// final result, ordered by size (largest first) and then by checksum.
func Collect(bySize map[uint64]ChecksumGroups) []DuplicateGroup {
	var groups []DuplicateGroup

	for size, byChecksum := range bySize {
		for sum, files := range byChecksum {
			if len(files) < 2 {
				continue
			}

			groups = append(groups, DuplicateGroup{
				Size:     size,
				Checksum: sum,
				Files:    files,
			})
		}
	}

	slices.SortFunc(groups, func(l, r DuplicateGroup) int {
		return cmp.Or(
			cmp.Compare(r.Size, l.Size),
			strings.Compare(string(l.Checksum), string(r.Checksum)),
		)
	})

	return groups
}
