//go:build linux

package gcsfusemount

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsMountpoint reports whether path is currently a filesystem boundary,
// tolerant of a hung FUSE endpoint whose daemon has died.
//
// Algorithm:
//  1. stat(path). A "transport endpoint is not connected" failure means the
//     backing daemon died without unmounting; treat that as "still
//     mounted" so teardown can proceed against it.
//  2. a non-directory is never a mountpoint.
//  3. "/" is always a mountpoint.
//  4. stat(path + "/.."); the device differs, or (degenerate
//     root-of-filesystem case) the inode is identical to the child's.
func IsMountpoint(path string) (bool, error) {
	var st unix.Stat_t

	err := unix.Stat(path, &st)
	if err != nil {
		if errors.Is(err, unix.ENOTCONN) {
			return true, nil
		}

		return false, nil
	}

	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return false, nil
	}

	if path == "/" {
		return true, nil
	}

	var parentSt unix.Stat_t

	err = unix.Stat(path+"/..", &parentSt)
	if err != nil {
		return false, nil
	}

	if st.Dev != parentSt.Dev {
		return true, nil
	}

	if st.Ino == parentSt.Ino {
		return true, nil
	}

	return false, nil
}

// probeExitMounted, probeExitNotMounted and probeExitError are the exit
// statuses the hidden "__probe-as" re-exec subcommand (cmd/gcsfuse-spank
// and cmd/gcsfuse-mount-ctl both expose it) uses to report its boolean
// result back to the parent, since a forked-and-dropped child cannot
// return a Go value directly. OSProcessRunner.ProbeAs (process_unix.go)
// runs that subcommand and interprets its exit status via these
// constants.
const (
	probeExitMounted    = 0
	probeExitNotMounted = 1
	probeExitError      = 2
)
