//go:build linux

package gcsfusemount

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// RunProbeAs is the entrypoint for the "__probe-as" hidden subcommand
// (argv beyond the subcommand name: uid, gid, path). It drops privileges
// to (uid, gid) and reports IsMountpoint's answer through its return
// value, which the caller passes to os.Exit -- this process never
// returns control to a Go caller in production, since OSProcessRunner.ProbeAs
// inspects the exit status of a separate process, not a return value.
func RunProbeAs(argv []string) int {
	if len(argv) != 3 {
		fmt.Fprintln(os.Stderr, "gcsfuse-mount: __probe-as requires uid, gid, path")

		return probeExitError
	}

	uid, err := strconv.Atoi(argv[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __probe-as: bad uid %q: %v\n", argv[0], err)

		return probeExitError
	}

	gid, err := strconv.Atoi(argv[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __probe-as: bad gid %q: %v\n", argv[1], err)

		return probeExitError
	}

	err = dropPrivileges(uid, gid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __probe-as: %v\n", err)

		return probeExitError
	}

	mounted, err := IsMountpoint(argv[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __probe-as: %v\n", err)

		return probeExitError
	}

	if mounted {
		return probeExitMounted
	}

	return probeExitNotMounted
}

// RunMountExec is the entrypoint for the "__mount-exec" hidden subcommand
// (argv: uid, gid, mountPoint, bucket-or-"-", flags). It drops privileges
// to the job identity, then, as the job user, validates and (if missing)
// creates the target directory, sets HOME to that user's home directory,
// assembles the gcsfuse argv, and execve's into it -- replacing this
// process image so the pid OSProcessRunner.EstablishMount returned stays
// the daemon's pid for the lifetime of the mount.
//
// GCSFUSE_MOUNT_DAEMON_PATH is read from the environment OSProcessRunner
// set up for this child, rather than threaded through argv, so the
// gcsfuse argv itself only ever carries mount-specific detail.
// GCSFUSE_MOUNT_LOGGER_PATH and GCSFUSE_MOUNT_SYSLOG_TAG are set in that
// environment too but are not read here: no syslog forwarder is started,
// and the daemon inherits this process's stdin, stdout and stderr as
// OSProcessRunner.EstablishMount wired them.
func RunMountExec(argv []string) int {
	if len(argv) != 5 {
		fmt.Fprintln(os.Stderr, "gcsfuse-mount: __mount-exec requires uid, gid, mountpoint, bucket, flags")

		return 1
	}

	uid, err := strconv.Atoi(argv[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __mount-exec: bad uid %q: %v\n", argv[0], err)

		return 1
	}

	gid, err := strconv.Atoi(argv[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __mount-exec: bad gid %q: %v\n", argv[1], err)

		return 1
	}

	mountPoint := argv[2]
	bucket := argv[3]
	flags := argv[4]

	err = dropPrivileges(uid, gid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __mount-exec: %v\n", err)

		return 1
	}

	err = validateMountTarget(mountPoint, uid, gid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __mount-exec: %v\n", err)

		return 1
	}

	home, err := homeDirForUID(uid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfuse-mount: __mount-exec: %v\n", err)

		return 1
	}

	daemonPath := os.Getenv("GCSFUSE_MOUNT_DAEMON_PATH")
	if daemonPath == "" {
		daemonPath = DefaultExecConfig().DaemonPath
	}

	daemonArgv := assembleDaemonArgv(daemonPath, bucket, mountPoint, flags)

	env := append(os.Environ(), "HOME="+home)

	err = unix.Exec(daemonPath, daemonArgv, env)

	// unix.Exec only returns on failure: the process image was never
	// replaced.
	fmt.Fprintf(os.Stderr, "gcsfuse-mount: __mount-exec: exec %s: %v\n", daemonPath, err)

	return 1
}

// validateMountTarget ensures the mount point exists, creating it if
// necessary, and that it will be usable by (uid, gid): it must be a
// directory, owned by uid, and contain no entries, since gcsfuse refuses
// to mount over a directory it does not own or that is non-empty.
func validateMountTarget(path string, uid, gid int) error {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return &ValidationError{Path: path, Reason: err.Error()}
		}

		mkErr := os.MkdirAll(path, 0o755)
		if mkErr != nil {
			return &ValidationError{Path: path, Reason: "cannot create: " + mkErr.Error()}
		}

		chownErr := os.Chown(path, uid, gid)
		if chownErr != nil {
			return &ValidationError{Path: path, Reason: "cannot chown: " + chownErr.Error()}
		}

		return nil
	}

	if !info.IsDir() {
		return &ValidationError{Path: path, Reason: "not a directory"}
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if ok && stat.Uid != uint32(uid) {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("owned by uid %d, not %d", stat.Uid, uid)}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return &ValidationError{Path: path, Reason: "cannot list: " + err.Error()}
	}

	if len(entries) > 0 {
		return &ValidationError{Path: path, Reason: "directory is not empty"}
	}

	return nil
}

func homeDirForUID(uid int) (string, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return "", fmt.Errorf("%w: looking up home directory for uid %d: %w", ErrValidation, uid, err)
	}

	return u.HomeDir, nil
}

// assembleDaemonArgv builds the gcsfuse command line: [gcsfuse, ...flags,
// bucket, mountPoint], or [gcsfuse, ...flags, mountPoint] when bucket is
// "-" (meaning the Spec named no bucket, either nil or explicit-empty --
// a dynamic "all buckets" mount; see bucketArgOrEmpty).
func assembleDaemonArgv(daemonPath, bucket, mountPoint, flags string) []string {
	argv := []string{daemonPath}

	if flags != "" {
		argv = append(argv, strings.Fields(flags)...)
	}

	if bucket != "-" {
		argv = append(argv, bucket)
	}

	argv = append(argv, mountPoint)

	return argv
}
