package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/idelchi/fdup/internal/fdup"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// allowedOutputs lists the supported output formats.
//
//nolint:gochecknoglobals // Config constant
var allowedOutputs = []string{"table", "json"}

// Command builds the root command.
//
//nolint:funlen // Flag registration
func (c CLI) Command() *cobra.Command {
	var (
		options    fdup.Options
		minSizeStr string
		threads    uint
	)

	cmd := &cobra.Command{
		Use:   "fdup [flags] root",
		Short: "Find duplicate files recursively and in parallel",
		Long: heredoc.Doc(`
			fdup finds duplicate files quickly by checking file sizes and content checksums.

			Files are first grouped by exact size. Only files sharing a size with at least
			one other file are read, and their full contents are checksummed on a pool of
			workers. Files with equal size and equal checksum are reported as a group.

			Symbolic links are never followed. Files that cannot be read are reported
			on stderr and skipped, without affecting the exit code.
		`),
		Example: heredoc.Doc(`
			fdup ~/Pictures
			fdup --sort --threads 4 /data
			fdup --min-size 1MB --exclude '.*\.git/.*' -o json .
		`),
		Version:       c.version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Path = args[0]
			options.Threads = int(threads) //nolint:gosec // Worker counts are small

			if !slices.Contains(allowedOutputs, strings.ToLower(options.Output)) {
				return fmt.Errorf("invalid output format %q: must be one of %v", options.Output, allowedOutputs)
			}

			if options.Depth < 0 {
				return errors.New("depth cannot be negative")
			}

			if _, err := fdup.ParseAlgorithm(options.Algorithm); err != nil {
				return err
			}

			// Parse minSize string to bytes
			if minSizeStr != "" {
				size, err := humanize.ParseBytes(minSizeStr)
				if err != nil {
					return fmt.Errorf("invalid min-size: %w", err)
				}

				options.MinSize = size
			}

			return logic(cmd.Context(), options, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.BoolVar(&options.Sort, "sort", false, "Sort each group of duplicate files lexicographically")
	flags.UintVar(&threads, "threads", 0, "Number of checksum workers (0=one per CPU)")
	flags.StringVarP(
		&options.Algorithm,
		"algorithm",
		"a",
		string(fdup.DefaultAlgorithm),
		fmt.Sprintf("Checksum algorithm: one of %v", fdup.Algorithms()),
	)
	flags.StringVar(&minSizeStr, "min-size", "0B", "Minimum file size (e.g., 1KB)")
	flags.StringSliceVarP(&options.Excludes, "exclude", "e", []string{}, "Regex patterns to exclude")
	flags.IntVarP(&options.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	flags.StringVarP(&options.Output, "output", "o", "table", "Output format: json or table")
	flags.BoolVar(&options.Debug, "debug", false, "Enable debug output")

	flags.BoolP("version", "v", false, "Show version and exit")

	return cmd
}

// Execute runs the CLI with the provided arguments.
func (c CLI) Execute(ctx context.Context, args []string) error {
	cmd := c.Command()
	cmd.SetArgs(args)

	return cmd.ExecuteContext(ctx)
}
