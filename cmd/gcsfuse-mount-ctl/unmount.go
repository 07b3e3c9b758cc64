package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// UnmountCmd tears down mount points by path, without requiring the
// daemon pid a live Lifecycle/SessionTable would have recorded: it runs
// the graceful-then-lazy cascade (ForceUnmount) against each mount point
// named on the command line, for operators cleaning up mounts this
// process did not itself establish.
func UnmountCmd(runner gcsfusemount.ProcessRunner, cfg gcsfusemount.ExecConfig) *Command {
	flags := flag.NewFlagSet("unmount", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")

	return &Command{
		Flags: flags,
		Usage: "unmount <path> [path...]",
		Short: "Unmount one or more gcsfuse mount points",
		Exec: func(_ context.Context, _ io.Reader, stdout, _ io.Writer, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("unmount: expected at least one path")
			}

			var errs []error

			for _, path := range args {
				err := gcsfusemount.ForceUnmount(runner, path, cfg)
				if err != nil {
					errs = append(errs, err)

					continue
				}

				fprintln(stdout, "unmounted", path)
			}

			if len(errs) == 0 {
				return nil
			}

			return fmt.Errorf("unmount: %d of %d paths failed: %w", len(errs), len(args), joinCmdErrors(errs))
		},
	}
}

func joinCmdErrors(errs []error) error {
	joined := errs[0]
	for _, err := range errs[1:] {
		joined = fmt.Errorf("%w; %w", joined, err)
	}

	return joined
}
