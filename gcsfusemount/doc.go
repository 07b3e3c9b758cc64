//go:build linux

// Package gcsfusemount mediates the lifecycle of per-job gcsfuse mounts
// around a workload-manager job step.
//
// A workload manager (e.g. Slurm via SPANK) calls into this package across
// several callback phases on the submission node and on each execution node:
//
//  1. ParseSpec/ResolveMountsForSubmission/CheckConflicts run when the user
//     passes --gcsfuse-mount=SPEC[;SPEC...] at job submission time. Their
//     combined output is written to the GCSFUSE_MOUNTS environment variable,
//     which is the sole channel carrying state from submission to execution.
//  2. Lifecycle.Establish runs once per resolved Mount Spec on the execution
//     node, before the user's task starts. It validates the target directory
//     under the job user's identity, forks/execs the gcsfuse daemon with
//     privileges dropped, and polls until the mount is live.
//  3. Lifecycle.Teardown runs when the job step exits. It unmounts every
//     mount this process established, in reverse order, escalating from a
//     graceful fusermount -u to SIGKILL to a lazy umount -l.
//
// This package does not itself speak the object-storage wire protocol; it
// shells out to the external gcsfuse binary and delegates filesystem
// mounting/unmounting to fusermount(1)/umount(1). It does not manage
// credentials beyond the OS identity of the job user, and it does not
// persist any state across job steps.
package gcsfusemount
