package fdup

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files under root from a map of slash paths to contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// pathSets returns groups as sorted, root-relative slash paths, in a
// canonical order independent of discovery and scheduling.
func pathSets(t *testing.T, root string, groups []DuplicateGroup) [][]string {
	t.Helper()

	sets := make([][]string, 0, len(groups))

	for _, g := range groups {
		set := make([]string, 0, len(g.Files))

		for _, f := range g.Files {
			rel, err := filepath.Rel(root, f.Path)
			require.NoError(t, err)

			set = append(set, filepath.ToSlash(rel))
		}

		slices.Sort(set)
		sets = append(sets, set)
	}

	slices.SortFunc(sets, func(l, r []string) int {
		return strings.Compare(strings.Join(l, "\x00"), strings.Join(r, "\x00"))
	})

	return sets
}

// run runs duplicate detection over root with default options.
func run(t *testing.T, root string, opts ...func(*Options)) *Result {
	t.Helper()

	opt := Options{Path: root}
	for _, o := range opts {
		o(&opt)
	}

	result, err := Run(t.Context(), opt, nil)
	require.NoError(t, err)

	return result
}
