package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// ProbeCmd reports whether a path is currently a mountpoint, either as the
// calling identity or, with --uid/--gid, as a dropped-privilege job
// identity.
func ProbeCmd(runner gcsfusemount.ProcessRunner) *Command {
	flags := flag.NewFlagSet("probe", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.Int("uid", -1, "Probe as this uid (requires --gid, and root to drop to it)")
	flags.Int("gid", -1, "Probe as this gid (requires --uid)")

	return &Command{
		Flags: flags,
		Usage: "probe [--uid UID --gid GID] <path>",
		Short: "Check whether a path is currently a mountpoint",
		Exec: func(_ context.Context, _ io.Reader, stdout, _ io.Writer, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("probe: expected exactly one argument, got %d", len(args))
			}

			uid, _ := flags.GetInt("uid")
			gid, _ := flags.GetInt("gid")

			var (
				mounted bool
				err     error
			)

			switch {
			case uid >= 0 && gid >= 0:
				mounted, err = runner.ProbeAs(args[0], uid, gid)
			case uid >= 0 || gid >= 0:
				return fmt.Errorf("probe: --uid and --gid must be given together")
			default:
				mounted, err = runner.Probe(args[0])
			}

			if err != nil {
				return err
			}

			if mounted {
				fprintln(stdout, "mounted")

				return nil
			}

			fprintln(stdout, "not mounted")

			return ErrSilentExit
		},
	}
}
