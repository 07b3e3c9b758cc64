package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// CheckConflictCmd reports whether appending candidate to current would
// rebind an already-claimed mount point to a different bucket.
func CheckConflictCmd() *Command {
	flags := flag.NewFlagSet("check-conflict", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")

	return &Command{
		Flags: flags,
		Usage: "check-conflict <current-list> <candidate-list>",
		Short: "Check a mount list addition for mount-point conflicts",
		Exec: func(_ context.Context, _ io.Reader, stdout, _ io.Writer, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("check-conflict: expected exactly two arguments, got %d", len(args))
			}

			err := gcsfusemount.CheckConflicts(args[0], args[1])
			if err != nil {
				return err
			}

			fprintln(stdout, "no conflicts")

			return nil
		},
	}
}
