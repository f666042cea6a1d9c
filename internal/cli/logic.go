package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/idelchi/fdup/internal/fdup"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// progressLine renders a progress snapshot for the status line.
func progressLine(p fdup.Progress) string {
	switch p.Phase {
	case fdup.PhaseHashing:
		return fmt.Sprintf("Hashing… %d/%d files", p.Hashed, p.Candidates)
	default:
		return fmt.Sprintf("Scanning… %d files, %s",
			p.Files, humanize.IBytes(uint64(p.Bytes))) //nolint:gosec // Bytes is always positive
	}
}

func logic(ctx context.Context, options fdup.Options, stdout, stderr io.Writer) error {
	output := strings.ToLower(options.Output)

	enableProgress := output != "json" &&
		!options.Debug &&
		isTerminal(stderr)

	// Simple progress callback that prints directly to stderr
	var progressHook func(fdup.Progress)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(p fdup.Progress) {
			fmt.Fprintf(stderr, "\r\033[2K%s\r", progressLine(p))
		}
	}

	result, err := fdup.Run(ctx, options, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	switch output {
	case "json":
		return PrintJSON(result, stdout)
	case "table":
		if err := PrintErrors(result, stderr); err != nil {
			return err
		}

		return PrintTable(result, stdout)
	default:
		return fmt.Errorf("unknown output format: %s", options.Output)
	}
}
