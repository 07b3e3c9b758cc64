package main

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// ResolveCmd resolves relative mount points in a spec list against a
// working directory, matching the submission-side behavior of
// ResolveMountsForSubmission.
func ResolveCmd() *Command {
	flags := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.String("cwd", "", "Working directory to resolve relative mount points against (default: current directory)")

	return &Command{
		Flags: flags,
		Usage: "resolve [--cwd dir] <mount-list>",
		Short: "Resolve relative mount points in a mount spec list",
		Exec: func(_ context.Context, _ io.Reader, stdout, _ io.Writer, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("resolve: expected exactly one argument, got %d", len(args))
			}

			cwd, _ := flags.GetString("cwd")
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve: determining current directory: %w", err)
				}

				cwd = wd
			}

			resolved, err := gcsfusemount.ResolveMountsForSubmission(args[0], cwd)
			if err != nil {
				return err
			}

			fprintln(stdout, resolved)

			return nil
		},
	}
}
