package gcsfusemount

import (
	"fmt"
	"time"
)

// Lifecycle establishes and tears down gcsfuse mounts for one job step, per
// the state machine below:
//
//	Requested -> Validated -> Forked -> Polling -> {Mounted|Failed} -> Unmounting -> {Released|Abandoned}
//
// A Failed or Abandoned mount never blocks its siblings: EstablishAll keeps
// processing the rest of a mount list best-effort, but the overall result
// reports failure if any single mount failed.
type Lifecycle struct {
	Runner ProcessRunner
	Table  *SessionTable
	Log    Logger
}

// NewLifecycle constructs a Lifecycle. table must be the same instance
// across Establish/Teardown calls for one step (see SessionTable).
func NewLifecycle(runner ProcessRunner, table *SessionTable, log Logger) *Lifecycle {
	if log == nil {
		log = NopLogger
	}

	return &Lifecycle{Runner: runner, Table: table, Log: log}
}

// Establish runs the per-mount establishment protocol for one resolved
// Mount Spec under identity, using cfg for binary paths, retry counts, and
// default flags.
//
// On success, (mount_point, daemon_pid) is recorded in the Session Mount
// Table. On any failure the mount is abandoned; Establish returns an error
// but the caller (UserInit) is expected to continue processing the
// remaining specs in the list per the best-effort list-processing policy.
func (l *Lifecycle) Establish(spec Spec, identity JobIdentity, cfg ExecConfig) error {
	// Step 1: idempotence check.
	alreadyMounted, err := l.Runner.Probe(spec.MountPoint)
	if err != nil {
		return fmt.Errorf("probing %s: %w", spec.MountPoint, err)
	}

	if alreadyMounted {
		l.Log.Infof("%s is already a mountpoint, skipping", spec.MountPoint)

		return nil
	}

	// Steps 2-8: fork, drop privileges, validate target, assemble command
	// line, exec the daemon (no syslog-forwarding pipe). EstablishMount returns
	// once the child/daemon process exists; it does not wait for readiness.
	pid, err := l.Runner.EstablishMount(spec, identity, cfg, l.Log)
	if err != nil {
		return fmt.Errorf("establishing mount at %s: %w", spec.MountPoint, err)
	}

	// Step 9: poll until mounted, the child exits early, or we time out.
	retries := cfg.MountWaitRetries
	if retries <= 0 {
		retries = DefaultExecConfig().MountWaitRetries
	}

	sleep := cfg.MountWaitSleep
	if sleep <= 0 {
		sleep = DefaultExecConfig().MountWaitSleep
	}

	for attempt := 0; attempt < retries; attempt++ {
		mounted, probeErr := l.Runner.Probe(spec.MountPoint)
		if probeErr != nil {
			return fmt.Errorf("probing %s: %w", spec.MountPoint, probeErr)
		}

		if mounted {
			l.Table.Add(SessionEntry{MountPoint: spec.MountPoint, DaemonPID: pid})
			l.Log.Infof("mounted %s (pid %d)", spec.MountPoint, pid)

			return nil
		}

		exited, waitErr := l.Runner.PollExited(pid)
		if waitErr != nil {
			return fmt.Errorf("polling daemon pid %d for %s: %w", pid, spec.MountPoint, waitErr)
		}

		if exited {
			return fmt.Errorf("%w: daemon for %s exited before mounting", ErrExec, spec.MountPoint)
		}

		time.Sleep(sleep)
	}

	// Step 10: timeout. Kill the child, reap it, fail the mount. No entry
	// is added to the Session Mount Table.
	killErr := l.Runner.Kill(pid)
	if killErr != nil {
		l.Log.Errorf("killing timed-out daemon pid %d for %s: %v", pid, spec.MountPoint, killErr)
	}

	return &MountTimeoutError{MountPoint: spec.MountPoint, Retries: retries}
}

// EstablishAll runs Establish for every spec in order, continuing past
// individual failures (best-effort list processing, per the establishment state
// machine notes). It returns the combined errors for any specs that
// failed; a non-nil return means the overall UserInit callback must report
// failure even though some mounts may have succeeded and been recorded.
func (l *Lifecycle) EstablishAll(specs []Spec, identity JobIdentity, cfg ExecConfig) error {
	var errs []error

	for _, spec := range specs {
		err := l.Establish(spec, identity, cfg)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return joinErrors(errs)
}
