package fdup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_GroupsIdenticalFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
		"c.txt": "world",
		"d.bin": string(make([]byte, 1024)),
	})

	result := run(t, root)

	assert.Equal(t, [][]string{{"a.txt", "b.txt"}}, pathSets(t, root, result.Groups))
	assert.Empty(t, result.Errors)
	assert.EqualValues(t, 4, result.FileCount)
	assert.EqualValues(t, 3, result.CandidateCount)
	assert.EqualValues(t, 3, result.HashedCount)
	assert.EqualValues(t, 5, result.WastedBytes)
	assert.Equal(t, uint64(5), result.Groups[0].Size)
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		result.Groups[0].Checksum.String())
}

func TestRun_EmptyFilesFormOneGroup(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"empty1":       "",
		"x/empty2":     "",
		"x/y/empty3":   "",
		"x/y/notempty": "z",
	})

	result := run(t, root)

	assert.Equal(t, [][]string{{"empty1", "x/empty2", "x/y/empty3"}}, pathSets(t, root, result.Groups))
	assert.Zero(t, result.HashedBytes)
	assert.Zero(t, result.WastedBytes)
}

func TestRun_DifferenceInLastByte(t *testing.T) {
	root := t.TempDir()

	// Larger than one read buffer so the difference lies past the first read.
	base := bytes.Repeat([]byte("0123456789abcdef"), readBufferSize/8)
	changed := bytes.Clone(base)
	changed[len(changed)-1] ^= 0xff

	writeTree(t, root, map[string]string{
		"one":   string(base),
		"two":   string(base),
		"three": string(changed),
	})

	result := run(t, root)

	assert.Equal(t, [][]string{{"one", "two"}}, pathSets(t, root, result.Groups))
}

func TestRun_DistinctSizesNeverHashed(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a": "a",
		"b": "bb",
		"c": "ccc",
	})

	result := run(t, root)

	assert.Empty(t, result.Groups)
	assert.Zero(t, result.CandidateCount)
	assert.Zero(t, result.HashedCount)
	assert.Zero(t, result.HashedBytes)
}

func TestRun_SameContentDifferentSizesStaySeparate(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"short1": "abc",
		"short2": "abc",
		"long1":  "abcabc",
		"long2":  "abcabc",
	})

	result := run(t, root)

	assert.Equal(t, [][]string{{"long1", "long2"}, {"short1", "short2"}}, pathSets(t, root, result.Groups))
	require.Len(t, result.Groups, 2)
	assert.Equal(t, uint64(6), result.Groups[0].Size, "largest group first")
}

func TestRun_WorkerCountDoesNotChangeGrouping(t *testing.T) {
	root := t.TempDir()

	files := make(map[string]string)
	for i := range 60 {
		// Three distinct contents per size, so sizes collide without all matching.
		files[fmt.Sprintf("d%d/f%02d", i%4, i)] = fmt.Sprintf("%0*d", 8+i%5, i%3)
	}

	writeTree(t, root, files)

	want := pathSets(t, root, run(t, root, func(o *Options) { o.Threads = 1 }).Groups)
	require.NotEmpty(t, want)

	for _, threads := range []int{0, 2, 8} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			got := run(t, root, func(o *Options) { o.Threads = threads })

			assert.Equal(t, want, pathSets(t, root, got.Groups))
		})
	}

	again := run(t, root, func(o *Options) { o.Threads = 1 })
	assert.Equal(t, want, pathSets(t, root, again.Groups), "repeated runs agree")
}

func TestRun_GroupsHaveAtLeastTwoMembers(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a": "1", "b": "1", "c": "2", "d": "3", "e": "3", "f": "4",
	})

	result := run(t, root)

	require.Len(t, result.Groups, 2)

	for _, g := range result.Groups {
		assert.GreaterOrEqual(t, len(g.Files), 2)
	}
}

func TestRun_SymlinksAreNotFollowed(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a":     "same",
		"b":     "same",
		"dir/c": "other",
	})

	require.NoError(t, os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "link-a")))
	require.NoError(t, os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "link-dir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken")))

	result := run(t, root)

	assert.Equal(t, [][]string{{"a", "b"}}, pathSets(t, root, result.Groups))
	assert.EqualValues(t, 3, result.FileCount)
	assert.Empty(t, result.Errors)
}

func TestRun_Sort(t *testing.T) {
	root := t.TempDir()

	files := make(map[string]string)
	for _, name := range []string{"m", "B", "a", "z/1", "c"} {
		files[name] = "dup"
	}

	writeTree(t, root, files)

	result := run(t, root, func(o *Options) { o.Sort = true })

	require.Len(t, result.Groups, 1)

	want := []string{"B", "a", "c", "m", "z/1"}
	for i := range want {
		want[i] = filepath.Join(root, filepath.FromSlash(want[i]))
	}

	assert.Equal(t, want, result.Groups[0].Paths())
}

func TestRun_Filters(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small1":           "ab",
		"small2":           "ab",
		"big1":             "abcdef",
		"big2":             "abcdef",
		".git/objects/big": "abcdef",
		"deep/er/big3":     "abcdef",
	})

	tests := []struct {
		name string
		opt  func(*Options)
		want [][]string
	}{
		{
			name: "none",
			opt:  func(*Options) {},
			want: [][]string{{".git/objects/big", "big1", "big2", "deep/er/big3"}, {"small1", "small2"}},
		},
		{
			name: "min size",
			opt:  func(o *Options) { o.MinSize = 3 },
			want: [][]string{{".git/objects/big", "big1", "big2", "deep/er/big3"}},
		},
		{
			name: "exclude",
			opt:  func(o *Options) { o.Excludes = []string{`.*\.git/.*`, `small2$`} },
			want: [][]string{{"big1", "big2", "deep/er/big3"}},
		},
		{
			name: "depth",
			opt:  func(o *Options) { o.Depth = 1 },
			want: [][]string{{"big1", "big2"}, {"small1", "small2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, root, tt.opt)

			assert.Equal(t, tt.want, pathSets(t, root, result.Groups))
		})
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"file": "x"})

	tests := []struct {
		name string
		path string
		is   error
	}{
		{name: "missing", path: filepath.Join(root, "nope"), is: fs.ErrNotExist},
		{name: "not a directory", path: filepath.Join(root, "file"), is: ErrNotDirectory},
		{name: "empty", path: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(t.Context(), Options{Path: tt.path}, nil)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)

			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	root := t.TempDir()

	_, err := Run(t.Context(), Options{Path: root, Algorithm: "md5"}, nil)
	require.Error(t, err)

	_, err = Run(t.Context(), Options{Path: root, Excludes: []string{"("}}, nil)
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*ConfigError)))
}

func TestRun_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "x", "b": "x"})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Run(ctx, Options{Path: root}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_UnreadableSubtreeIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"locked/hidden": "same",
		"open/a":        "same",
		"open/b":        "same",
		"c":             "same",
	})

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	result := run(t, root)

	assert.Equal(t, [][]string{{"c", "open/a", "open/b"}}, pathSets(t, root, result.Groups))
	assert.EqualValues(t, 3, result.FileCount)
	require.Len(t, result.Errors, 1)

	var walkErr *WalkError
	require.ErrorAs(t, result.Errors[0], &walkErr)
	assert.Equal(t, locked, walkErr.Path)
	assert.ErrorIs(t, walkErr, fs.ErrPermission)
}
