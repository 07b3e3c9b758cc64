package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Run is gcsfuse-mount-ctl's entry point. Before any flag parsing, it
// checks for the hidden re-exec subcommands (see gcsfusemount/reexec.go);
// those never reach normal command dispatch or pflag, since they are
// invoked by OSProcessRunner itself, not by a human or Slurm.
func Run(args []string, env map[string]string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) >= 2 {
		switch args[1] {
		case gcsfusemount.ReexecProbeAs:
			return gcsfusemount.RunProbeAs(args[2:])
		case gcsfusemount.ReexecMountExec:
			return gcsfusemount.RunMountExec(args[2:])
		}
	}

	globalFlags := flag.NewFlagSet("gcsfuse-mount-ctl", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagVersion := globalFlags.BoolP("version", "v", false, "Show version and exit")
	flagConfig := globalFlags.String("config", "", "Use specified plugin config `file`")

	err := globalFlags.Parse(args[1:])
	if err != nil {
		fprintError(stderr, err)
		fprintln(stderr)
		printGlobalOptions(stderr)

		return 1
	}

	if *flagVersion {
		fprintf(stdout, "gcsfuse-mount-ctl %s\n", version)

		return 0
	}

	cfg, err := gcsfusemount.LoadExecConfig(resolveConfigPath(*flagConfig, env))
	if err != nil {
		fprintError(stderr, err)

		return 1
	}

	runner := gcsfusemount.NewOSProcessRunner(selfPath(args))

	commands := []*Command{
		ParseCmd(),
		ResolveCmd(),
		CheckConflictCmd(),
		ProbeCmd(runner),
		MountCmd(runner, cfg),
		UnmountCmd(runner, cfg),
	}

	commandMap := make(map[string]*Command, len(commands)*2)
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases {
			commandMap[alias] = cmd
		}
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || len(commandAndArgs) == 0 {
		printUsage(stdout, commands)

		return 0
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(stderr, "gcsfuse-mount-ctl: unknown command", fmt.Sprintf("%q", cmdName))
		printUsage(stderr, commands)

		return 1
	}

	return cmd.Run(context.Background(), stdin, stdout, stderr, commandAndArgs[1:])
}

func resolveConfigPath(flagValue string, env map[string]string) string {
	if flagValue != "" {
		return flagValue
	}

	return gcsfusemount.ConfigPathFromEnv(env)
}

// selfPath returns the argv[0]-equivalent used for re-exec'd privileged
// children, preferring the resolved executable path so the hidden
// subcommands still work if PATH or the working directory changes
// between invocations.
func selfPath(args []string) string {
	resolved, err := os.Executable()
	if err == nil {
		return resolved
	}

	if len(args) > 0 {
		return args[0]
	}

	return "gcsfuse-mount-ctl"
}

func fprintln(output io.Writer, a ...any) {
	_, _ = fmt.Fprintln(output, a...)
}

func fprintf(output io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(output, format, a...)
}

func fprintError(output io.Writer, err error) {
	fprintln(output, "error:", err)
}

const globalOptionsHelp = `  -h, --help             Show help
  -v, --version          Show version and exit
      --config <file>    Use specified plugin config file`

func printGlobalOptions(output io.Writer) {
	fprintln(output, "Usage: gcsfuse-mount-ctl [flags] <command> [args]")
	fprintln(output)
	fprintln(output, "Global flags:")
	fprintln(output, globalOptionsHelp)
}

func printUsage(output io.Writer, commands []*Command) {
	fprintln(output, "gcsfuse-mount-ctl - inspect and drive gcsfuse mount/unmount lifecycle outside Slurm")
	fprintln(output)
	fprintln(output, "Usage: gcsfuse-mount-ctl [flags] <command> [args]")
	fprintln(output)
	fprintln(output, "Flags:")
	fprintln(output, globalOptionsHelp)
	fprintln(output)
	fprintln(output, "Commands:")

	for _, cmd := range commands {
		fprintln(output, cmd.HelpLine())
	}
}
