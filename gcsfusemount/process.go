package gcsfusemount

// ProcessRunner abstracts every fork/exec interaction the lifecycle manager
// needs: establishing a mount daemon under a dropped identity, polling and
// killing it, and running the unmount tools. Production code uses
// OSProcessRunner (process_unix.go); tests inject a fake so the
// establishment/teardown state machines can be exercised deterministically,
// without a real gcsfuse/fusermount/umount binary or real privilege drops.
type ProcessRunner interface {
	// Probe reports whether path is currently a mount boundary, as seen by
	// the plug-in's own (typically root) identity, without dropping
	// privileges.
	Probe(path string) (bool, error)

	// ProbeAs reports the same thing as seen by (uid, gid): it forks a
	// child that drops privileges to (uid, gid) before probing.
	ProbeAs(path string, uid, gid int) (bool, error)

	// EstablishMount runs the full per-mount establishment protocol up to
	// and including exec'ing the daemon: fork, drop privileges,
	// validate/create the target directory, set HOME, assemble the daemon
	// command line, and exec. The daemon's output is not forwarded to the
	// system log; see OSProcessRunner.EstablishMount for where it goes.
	// It returns the child's pid
	// immediately; the daemon runs in the foreground inside that process
	// image, so the returned pid is also the daemon's pid. The caller
	// (Lifecycle.Establish) is responsible for polling readiness and
	// killing the child on timeout.
	EstablishMount(spec Spec, identity JobIdentity, cfg ExecConfig, log Logger) (pid int, err error)

	// PollExited performs a non-blocking check for whether pid has already
	// exited (used while polling for mount readiness, to fail fast if the
	// daemon died instead of waiting out the full timeout).
	PollExited(pid int) (exited bool, err error)

	// Kill sends SIGKILL to pid and reaps it, ignoring "no such process"
	// (the child may have already exited and been reaped).
	Kill(pid int) error

	// Unmount forks+execs the graceful user-space unmount tool
	// (fusermount -u path) and waits for it to complete.
	Unmount(path string, cfg ExecConfig) error

	// LazyUnmount forks+execs the system unmount tool in lazy mode
	// (umount -l path) and waits for it to complete.
	LazyUnmount(path string, cfg ExecConfig) error
}
