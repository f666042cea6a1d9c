package fdup

import (
	"context"
	_ "crypto/sha256" // register sha256 with go-digest
	_ "crypto/sha512" // register sha384 and sha512 with go-digest
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/opencontainers/go-digest"
)

// Algorithm names a checksum algorithm.
type Algorithm string

// Supported checksum algorithms.
const (
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
	// XXH64 is fast but not collision resistant against crafted input.
	XXH64 Algorithm = "xxh64"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = SHA256

// Algorithms returns the supported algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, SHA384, SHA512, XXH64}
}

// ParseAlgorithm resolves an algorithm name. The empty name selects DefaultAlgorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))

	switch alg {
	case "":
		return DefaultAlgorithm, nil
	case SHA256, SHA384, SHA512:
		if !digest.Algorithm(alg).Available() {
			return "", fmt.Errorf("checksum algorithm %q is not available", name)
		}

		return alg, nil
	case XXH64:
		return alg, nil
	default:
		return "", fmt.Errorf("unknown checksum algorithm %q: must be one of %v", name, Algorithms())
	}
}

func (a Algorithm) hash() hash.Hash {
	if a == XXH64 {
		return xxhash.New()
	}

	return digest.Algorithm(a).Hash()
}

// Sum streams r through the algorithm. It returns the digest and the number
// of bytes consumed. buf is used as the copy buffer and may be nil.
func (a Algorithm) Sum(r io.Reader, buf []byte) (digest.Digest, int64, error) {
	h := a.hash()

	// Hide any WriterTo so that buf is actually used.
	n, err := io.CopyBuffer(h, struct{ io.Reader }{r}, buf)
	if err != nil {
		return "", n, err
	}

	return digest.NewDigest(digest.Algorithm(a), h), n, nil
}

// empty returns the digest of zero bytes of input.
func (a Algorithm) empty() digest.Digest {
	return digest.NewDigest(digest.Algorithm(a), a.hash())
}

// sumFile checksums the full contents of the file at path, which is expected
// to hold exactly size bytes.
func (a Algorithm) sumFile(path string, size uint64, buf []byte) (sum digest.Digest, n int64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening file: %w", err)
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	// Read one byte past the expected size to notice growth without
	// consuming the rest of the file.
	limit := int64(size) + 1 //nolint:gosec // Sizes originate from int64 file info

	sum, n, err = a.Sum(io.LimitReader(file, limit), buf)
	if err != nil {
		return "", n, fmt.Errorf("hashing file contents: %w", err)
	}

	if uint64(n) != size { //nolint:gosec // n is never negative
		return "", n, fmt.Errorf("%w: expected %d bytes, read %d", ErrSizeChanged, size, n)
	}

	return sum, n, nil
}

// slot is a write-once checksum result owned by a single work item.
type slot struct {
	sum digest.Digest
	ok  bool
}

// Engine computes checksums for pruned size buckets on a worker pool.
type Engine struct {
	pool      *Pool
	algorithm Algorithm
	errs      *ErrorLog
	log       logger
	counts    *counters
}

// NewEngine creates an Engine. Files that cannot be read are recorded in errs.
func NewEngine(pool *Pool, algorithm Algorithm, errs *ErrorLog) *Engine {
	return &Engine{
		pool:      pool,
		algorithm: algorithm,
		errs:      errs,
		counts:    &counters{},
	}
}

// Checksum hashes every file in buckets and regroups each bucket by checksum.
// Checksum groups with a single member are dropped, as are sizes left with
// no group. A file that cannot be read is reported as a *ReadError and
// excluded, while the rest of its bucket is still compared. The returned
// error is non-nil only when ctx is cancelled.
func (e *Engine) Checksum(ctx context.Context, buckets SizeBuckets) (map[uint64]ChecksumGroups, error) {
	sizes := buckets.Sizes()

	slots := make(map[uint64][]slot, len(sizes))
	for _, size := range sizes {
		slots[size] = make([]slot, len(buckets[size]))
	}

	// Empty files need no I/O.
	if empty, ok := slots[0]; ok {
		sum := e.algorithm.empty()
		for i := range empty {
			empty[i] = slot{sum: sum, ok: true}
		}

		e.counts.hashed.Add(int64(len(empty)))
	}

	feed := func(ctx context.Context, queue chan<- workItem) error {
		for _, size := range sizes {
			if size == 0 {
				continue
			}

			for i := range buckets[size] {
				select {
				case queue <- workItem{size: size, index: i}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		return nil
	}

	work := func(item workItem, buf []byte) error {
		entry := buckets[item.size][item.index]

		sum, n, err := e.algorithm.sumFile(entry.Path, entry.Size, buf)
		e.counts.hashedBytes.Add(n)

		if err != nil {
			e.log.printf("[debug]: dropping %s: %v\n", entry.Path, err)
			e.errs.Add(&ReadError{Path: entry.Path, Err: err})

			return nil
		}

		slots[item.size][item.index] = slot{sum: sum, ok: true}
		e.counts.hashed.Add(1)

		return nil
	}

	if err := e.pool.Run(ctx, feed, work); err != nil {
		return nil, err
	}

	out := make(map[uint64]ChecksumGroups, len(sizes))

	for _, size := range sizes {
		if groups := regroup(buckets[size], slots[size]); len(groups) > 0 {
			out[size] = groups
		}
	}

	return out, nil
}

// regroup partitions one size bucket by checksum, dropping unreadable files
// and checksums seen only once.
func regroup(entries []FileEntry, slots []slot) ChecksumGroups {
	groups := make(ChecksumGroups)

	for i, entry := range entries {
		if !slots[i].ok {
			continue
		}

		groups[slots[i].sum] = append(groups[slots[i].sum], entry)
	}

	for sum, members := range groups {
		if len(members) < 2 {
			delete(groups, sum)
		}
	}

	return groups
}
