// Command fdup finds duplicate files recursively and in parallel.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/idelchi/fdup/internal/cli"
)

// version is set at build time.
//
//nolint:gochecknoglobals // Set by ldflags
var version = "unknown - unofficial & generated by unknown"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.New(version).Execute(ctx, os.Args[1:])

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "fdup: %v\n", err)
		os.Exit(1)
	}
}
