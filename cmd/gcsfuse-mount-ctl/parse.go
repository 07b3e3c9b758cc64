package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// ParseCmd parses a GCSFUSE_MOUNTS-style list and prints each entry's
// canonical (bucket, mount point, flags) form, one per line. Useful for
// sanity-checking a --gcsfuse-mount value before submitting a job.
func ParseCmd() *Command {
	flags := flag.NewFlagSet("parse", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")

	return &Command{
		Flags: flags,
		Usage: "parse <mount-list>",
		Short: "Parse a mount spec list and print its canonical form",
		Exec: func(_ context.Context, _ io.Reader, stdout, _ io.Writer, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("parse: expected exactly one argument, got %d", len(args))
			}

			specs, err := gcsfusemount.ParseMountList(args[0])
			if err != nil {
				return err
			}

			for _, spec := range specs {
				fprintln(stdout, spec.String())
			}

			return nil
		},
	}
}
