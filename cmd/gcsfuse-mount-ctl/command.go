package main

import (
	"context"
	"errors"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrSilentExit lets a command's Exec signal a non-zero exit without Run
// printing an additional error line (the command has already written its
// own message to stdout/stderr).
var ErrSilentExit = errors.New("silent exit")

// Command is a named subcommand: a pflag.FlagSet, help text, and an Exec
// closure that captures whatever config/state the command needs.
type Command struct {
	Flags   *flag.FlagSet
	Usage   string
	Short   string
	Long    string
	Aliases []string
	Exec    func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error
}

func (c *Command) Name() string {
	return c.Flags.Name()
}

func (c *Command) HelpLine() string {
	return "  " + c.Usage + "\n      " + c.Short
}

// Run parses flags, handles -h/--help, and invokes Exec. Returns a process
// exit code.
func (c *Command) Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	err := c.Flags.Parse(args)
	if err != nil {
		fprintError(stderr, err)

		return 1
	}

	help, _ := c.Flags.GetBool("help")
	if help {
		fprintln(stdout, "Usage:", c.Usage)

		if c.Long != "" {
			fprintln(stdout)
			fprintln(stdout, c.Long)
		}

		return 0
	}

	err = c.Exec(ctx, stdin, stdout, stderr, c.Flags.Args())
	if err != nil {
		if errors.Is(err, ErrSilentExit) {
			return 1
		}

		fprintError(stderr, err)

		return 1
	}

	return 0
}
