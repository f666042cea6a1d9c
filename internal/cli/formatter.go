package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/idelchi/fdup/internal/fdup"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

//nolint:gochecknoglobals // Shared text attribute
var bold = color.New(color.Bold)

// jsonResult is the JSON form of a result, with errors rendered as text.
type jsonResult struct {
	*fdup.Result

	Errors []string `json:"errors"`
}

// PrintJSON outputs the result in JSON format.
func PrintJSON(result *fdup.Result, writer io.Writer) error {
	res := *result
	if res.Groups == nil {
		res.Groups = []fdup.DuplicateGroup{}
	}

	out := jsonResult{Result: &res, Errors: make([]string, 0, len(result.Errors))}
	for _, err := range result.Errors {
		out.Errors = append(out.Errors, err.Error())
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintErrors lists the non-fatal errors of a run, one per line.
func PrintErrors(result *fdup.Result, writer io.Writer) error {
	for _, err := range result.Errors {
		if _, err := fmt.Fprintf(writer, "fdup: %v\n", err); err != nil {
			return err
		}
	}

	return nil
}

// PrintTable outputs duplicate groups in human-readable format, one block per
// group with one member per line, followed by a summary.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(result *fdup.Result, writer io.Writer) error {
	for _, group := range result.Groups {
		bold.Fprintf(writer, "%d files, %s each (%s wasted):\n",
			len(group.Files), humanize.IBytes(group.Size), humanize.IBytes(group.Wasted()))

		for _, path := range group.Paths() {
			fmt.Fprintf(writer, "  %s\n", path)
		}

		fmt.Fprintln(writer)
	}

	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintln(w, "Stats:\t\t")
	fmt.Fprintf(w, "Total files:\t%d\n", result.FileCount)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n",
		humanize.IBytes(uint64(result.TotalBytes)), result.TotalBytes) //nolint:gosec // Sizes are never negative
	fmt.Fprintf(w, "Hashed:\t%d of %d candidates, %s\n",
		result.HashedCount, result.CandidateCount,
		humanize.IBytes(uint64(result.HashedBytes))) //nolint:gosec // Sizes are never negative
	fmt.Fprintf(w, "Duplicate groups:\t%d\n", len(result.Groups))
	fmt.Fprintf(w, "Wasted:\t%s (%d bytes)\n", humanize.IBytes(result.WastedBytes), result.WastedBytes)

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "Errors:\t%d\n", len(result.Errors))
	}

	fmt.Fprintf(w, "\nElapsed:\t%v (%d workers, %s)\n", result.Elapsed, result.Threads, result.Algorithm)

	return w.Flush()
}
