package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// MountCmd establishes every mount in a spec list under a given job
// identity, outside of Slurm. It is the operator-facing equivalent of the
// plug-in's UserInit callback, useful for reproducing or
// debugging a step's mounts interactively.
func MountCmd(runner gcsfusemount.ProcessRunner, cfg gcsfusemount.ExecConfig) *Command {
	flags := flag.NewFlagSet("mount", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.Int("uid", 0, "Job uid to drop privileges to")
	flags.Int("gid", 0, "Job gid to drop privileges to")

	return &Command{
		Flags: flags,
		Usage: "mount --uid UID --gid GID <mount-list>",
		Short: "Establish every mount in a mount spec list",
		Exec: func(_ context.Context, _ io.Reader, stdout, stderr io.Writer, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("mount: expected exactly one argument, got %d", len(args))
			}

			uid, _ := flags.GetInt("uid")
			gid, _ := flags.GetInt("gid")

			specs, err := gcsfusemount.ParseMountList(args[0])
			if err != nil {
				return err
			}

			table := gcsfusemount.NewSessionTable()
			log := gcsfusemount.NewWriterLogger(stderr)
			lifecycle := gcsfusemount.NewLifecycle(runner, table, log)

			identity := gcsfusemount.JobIdentity{UID: uid, GID: gid}

			err = lifecycle.EstablishAll(specs, identity, cfg)

			for _, entry := range table.EntriesReversed() {
				fprintln(stdout, entry.MountPoint)
			}

			return err
		},
	}
}
