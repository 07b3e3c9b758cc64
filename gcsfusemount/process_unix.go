//go:build linux

package gcsfusemount

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// Hidden subcommand names cmd/gcsfuse-spank and cmd/gcsfuse-mount-ctl both
// dispatch on argv[1] before doing anything else (see main in
// cmd/gcsfuse-spank/plugin.go and Run in cmd/gcsfuse-mount-ctl/run.go).
// They exist only so OSProcessRunner can re-exec its
// own binary to reach Go code that must run after a privilege drop but
// before the final exec into gcsfuse/fusermount/umount: a bare fork() is not safe to use from a Go process
// without an immediate execve, so every privileged child is, in practice,
// one of these two re-exec'd subcommands.
const (
	ReexecProbeAs   = "__probe-as"
	ReexecMountExec = "__mount-exec"
)

// OSProcessRunner is the production ProcessRunner: it execs real binaries
// (fusermount, umount) directly, and re-execs its own binary's hidden
// subcommands, which drop privileges via dropPrivileges and, for a mount,
// exec gcsfuse.
type OSProcessRunner struct {
	// ReexecPath is the argv[0]-equivalent used to re-enter this binary's
	// hidden subcommands. Set from os.Executable() (cmd/gcsfuse-mount-ctl)
	// or from the host-supplied plugin path (cmd/gcsfuse-spank); see spec
	// §4.5, "Self-reexec note".
	ReexecPath string
}

// NewOSProcessRunner returns an OSProcessRunner that re-execs itself via
// reexecPath for privileged children.
func NewOSProcessRunner(reexecPath string) *OSProcessRunner {
	return &OSProcessRunner{ReexecPath: reexecPath}
}

func (r *OSProcessRunner) Probe(path string) (bool, error) {
	return IsMountpoint(path)
}

// ProbeAs re-execs ReexecPath as "<path> __probe-as <uid> <gid> <target>",
// letting the child drop privileges (via dropPrivileges) before it calls
// IsMountpoint itself, and reads the answer back from the child's exit
// status (probeExit* in prober.go), since a dropped-privilege child cannot
// hand a value back any other way.
func (r *OSProcessRunner) ProbeAs(path string, uid, gid int) (bool, error) {
	cmd := exec.Command(r.ReexecPath, ReexecProbeAs, strconv.Itoa(uid), strconv.Itoa(gid), path)

	err := cmd.Run()

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		return true, nil
	case asExitError(err, &exitErr):
		switch exitErr.ExitCode() {
		case probeExitNotMounted:
			return false, nil
		default:
			return false, fmt.Errorf("%w: probe-as %d:%d %s exited %d", ErrExec, uid, gid, path, exitErr.ExitCode())
		}
	default:
		return false, fmt.Errorf("%w: probe-as %d:%d %s: %w", ErrExec, uid, gid, path, err)
	}
}

// EstablishMount re-execs ReexecPath as the "__mount-exec" hidden
// subcommand, which drops privileges, validates the target directory, sets
// HOME and assembles the gcsfuse argv before exec'ing into the gcsfuse
// binary itself -- so the returned pid is both the re-exec child's pid and
// the daemon's, once the hidden subcommand's own exec(2) succeeds.
//
// The child's stdin and stdout are the null device. Its stderr (and so the
// daemon's) is collected in memory and passed to log.Errorf if the process
// exits with an error; no syslog forwarder is started, and cfg.LoggerPath
// and cfg.SyslogTag are only passed along in the child's environment.
//
// The Credential on the re-exec step itself is intentionally left unset:
// the hidden subcommand drops privileges in Go code (dropPrivileges), so
// directory validation and creation as well as the final daemon exec run
// as the job user.
func (r *OSProcessRunner) EstablishMount(spec Spec, identity JobIdentity, cfg ExecConfig, log Logger) (int, error) {
	args := []string{
		ReexecMountExec,
		strconv.Itoa(identity.UID),
		strconv.Itoa(identity.GID),
		spec.MountPoint,
		bucketArgOrEmpty(spec),
		combineFlags(cfg.DefaultFlags, spec.Flags),
	}

	cmd := exec.Command(r.ReexecPath, args...)
	cmd.Env = append(os.Environ(),
		"GCSFUSE_MOUNT_DAEMON_PATH="+cfg.DaemonPath,
		"GCSFUSE_MOUNT_LOGGER_PATH="+cfg.LoggerPath,
		"GCSFUSE_MOUNT_SYSLOG_TAG="+cfg.SyslogTag,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Start()
	if err != nil {
		return 0, fmt.Errorf("%w: starting mount-exec for %s: %w", ErrFork, spec.MountPoint, err)
	}

	go func() {
		waitErr := cmd.Wait()
		if waitErr != nil && stderr.Len() > 0 {
			log.Errorf("mount-exec for %s: %s", spec.MountPoint, stderr.String())
		}
	}()

	return cmd.Process.Pid, nil
}

func (r *OSProcessRunner) PollExited(pid int) (bool, error) {
	err := unix.Kill(pid, 0)
	if err == nil {
		return false, nil
	}

	if err == unix.ESRCH {
		return true, nil
	}

	return false, fmt.Errorf("%w: polling pid %d: %w", ErrExec, pid, err)
}

func (r *OSProcessRunner) Kill(pid int) error {
	err := unix.Kill(pid, unix.SIGKILL)
	if err != nil && err != unix.ESRCH {
		return fmt.Errorf("%w: killing pid %d: %w", ErrExec, pid, err)
	}

	var ws unix.WaitStatus

	_, _ = unix.Wait4(pid, &ws, 0, nil)

	return nil
}

func (r *OSProcessRunner) Unmount(path string, cfg ExecConfig) error {
	return runToolToCompletion(cfg.FusermountPath, "-u", path)
}

func (r *OSProcessRunner) LazyUnmount(path string, cfg ExecConfig) error {
	return runToolToCompletion(cfg.UmountPath, "-l", path)
}

func runToolToCompletion(name string, args ...string) error {
	cmd := exec.Command(name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("%w: %s %v: %w: %s", ErrExec, name, args, err, stderr.String())
	}

	return nil
}

func asExitError(err error, target **exec.ExitError) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}

	*target = exitErr

	return true
}

func bucketArgOrEmpty(spec Spec) string {
	if !spec.HasExplicitBucket() {
		return "-"
	}

	return *spec.Bucket
}

func combineFlags(defaultFlags, specFlags string) string {
	if defaultFlags == "" {
		return specFlags
	}

	if specFlags == "" {
		return defaultFlags
	}

	return defaultFlags + " " + specFlags
}

// dropPrivileges drops the calling (root) process's real, effective, and
// saved group and user IDs to gid/uid using the three-argument
// setresgid/setresuid form, so the privilege cannot be recovered. Group
// must be dropped before user: once the uid is dropped, the process no
// longer has permission to change its gid.
func dropPrivileges(uid, gid int) error {
	err := syscall.Setresgid(gid, gid, gid)
	if err != nil {
		return fmt.Errorf("%w: setresgid(%d): %w", ErrPrivilege, gid, err)
	}

	err = syscall.Setresuid(uid, uid, uid)
	if err != nil {
		return fmt.Errorf("%w: setresuid(%d): %w", ErrPrivilege, uid, err)
	}

	return nil
}
