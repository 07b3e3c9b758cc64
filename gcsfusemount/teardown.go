package gcsfusemount

import "fmt"

// Teardown unwinds every mount this Lifecycle's SessionTable recorded, in
// reverse insertion order:
//
//  1. fusermount -u (graceful; lets the daemon flush and exit on its own)
//  2. SIGKILL the daemon if it is still alive
//  3. umount -l (lazy, detaches the mount point even if something still has
//     it open, as a last resort against a daemon that would not die)
//  4. forget the entry
//
// A failure at any step for one mount does not stop teardown of the
// others: Teardown always attempts every recorded entry and returns the
// combined errors, if any, leaving the table empty regardless of outcome
// (an entry this process cannot tear down is not retried; the caller only
// receives the errors, and cmd/gcsfuse-spank's Exit logs them without
// failing the step).
func (l *Lifecycle) Teardown(cfg ExecConfig) []error {
	entries := l.Table.EntriesReversed()

	var errs []error

	for _, entry := range entries {
		err := l.teardownOne(entry, cfg)
		if err != nil {
			errs = append(errs, err)
		}
	}

	l.Table.Clear()

	return errs
}

// ForceUnmount tears down a single mount point without a known daemon pid
// (graceful fusermount -u, falling back to lazy umount -l). It is the
// standalone-CLI counterpart of Lifecycle.Teardown's per-entry cascade,
// for operators driving gcsfuse-mount-ctl directly against a mount point
// that was not established by this process (so its pid is unknown and
// cannot be SIGKILLed).
func ForceUnmount(runner ProcessRunner, path string, cfg ExecConfig) error {
	err := runner.Unmount(path, cfg)
	if err == nil {
		return nil
	}

	lazyErr := runner.LazyUnmount(path, cfg)
	if lazyErr != nil {
		return fmt.Errorf("%w: %s: graceful unmount failed (%v), lazy unmount failed (%w)",
			ErrUnmount, path, err, lazyErr)
	}

	return nil
}

func (l *Lifecycle) teardownOne(entry SessionEntry, cfg ExecConfig) error {
	err := l.Runner.Unmount(entry.MountPoint, cfg)

	// The daemon is killed unconditionally, even after a successful
	// graceful unmount: fusermount -u returning success only means the
	// mount point was detached, not that the daemon process itself has
	// exited, and a lingering daemon must not outlive its SessionTable
	// entry.
	killErr := l.Runner.Kill(entry.DaemonPID)
	if killErr != nil {
		l.Log.Errorf("killing daemon pid %d for %s: %v", entry.DaemonPID, entry.MountPoint, killErr)
	}

	if err == nil {
		l.Log.Infof("unmounted %s", entry.MountPoint)

		return nil
	}

	l.Log.Errorf("graceful unmount of %s failed: %v", entry.MountPoint, err)

	lazyErr := l.Runner.LazyUnmount(entry.MountPoint, cfg)
	if lazyErr != nil {
		return fmt.Errorf("%w: %s: graceful unmount failed (%v), lazy unmount failed (%w)",
			ErrUnmount, entry.MountPoint, err, lazyErr)
	}

	l.Log.Infof("lazily unmounted %s after graceful unmount failed", entry.MountPoint)

	return nil
}
