package gcsfusemount

import "time"

// JobIdentity is the job user's OS identity, as reported by the workload
// manager for the current step (S_JOB_UID/S_JOB_GID).
type JobIdentity struct {
	UID int
	GID int
}

// ExecConfig carries the operational tunables otherwise left as constants,
// made configurable via PluginConfig (see config.go) so an operator can
// repoint binaries or retune timeouts without recompiling the plugin.
type ExecConfig struct {
	// DaemonPath is the gcsfuse binary, resolved by absolute path or PATH.
	DaemonPath string
	// FusermountPath is the user-space FUSE unmount tool.
	FusermountPath string
	// UmountPath is the system unmount tool, invoked with the lazy flag as
	// the last-resort teardown step.
	UmountPath string
	// LoggerPath names the syslog forwarder. OSProcessRunner passes it to
	// the mount child's environment; no code path execs it.
	LoggerPath string
	// SyslogTag is the tag for the syslog forwarder. OSProcessRunner passes
	// it to the mount child's environment; no code path reads it there.
	SyslogTag string
	// MountWaitRetries is the number of readiness-poll iterations before a
	// mount establishment attempt times out (default 60).
	MountWaitRetries int
	// MountWaitSleep is the interval between readiness polls (default 500ms).
	MountWaitSleep time.Duration
	// DefaultFlags are extra whitespace-separated gcsfuse flags appended to
	// every mount before the spec's own Flags, letting an operator set a
	// site-wide baseline (e.g. cache directory, log format) that individual
	// --gcsfuse-mount invocations can still extend.
	DefaultFlags string
}

// DefaultExecConfig returns the built-in tunables used when no
// PluginConfig file overrides them.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		DaemonPath:       "gcsfuse",
		FusermountPath:   "fusermount",
		UmountPath:       "umount",
		LoggerPath:       "logger",
		SyslogTag:        "gcsfuse_mount",
		MountWaitRetries: 60,
		MountWaitSleep:   500 * time.Millisecond,
	}
}
