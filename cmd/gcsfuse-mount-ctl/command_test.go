package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// fakeRunner is a minimal, deterministic gcsfusemount.ProcessRunner double
// for exercising command dispatch without a real gcsfuse/fusermount binary
// or real privilege drops (see gcsfusemount/executor_test.go's fakeRunner
// for the same approach one layer down).
type fakeRunner struct {
	mounted        map[string]bool
	unmountErr     map[string]error
	lazyUnmountErr map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		mounted:        make(map[string]bool),
		unmountErr:     make(map[string]error),
		lazyUnmountErr: make(map[string]error),
	}
}

func (f *fakeRunner) Probe(path string) (bool, error) { return f.mounted[path], nil }

func (f *fakeRunner) ProbeAs(path string, _, _ int) (bool, error) { return f.mounted[path], nil }

func (f *fakeRunner) EstablishMount(spec gcsfusemount.Spec, _ gcsfusemount.JobIdentity, _ gcsfusemount.ExecConfig, _ gcsfusemount.Logger) (int, error) {
	f.mounted[spec.MountPoint] = true

	return 1, nil
}

func (f *fakeRunner) PollExited(int) (bool, error) { return false, nil }

func (f *fakeRunner) Kill(int) error { return nil }

func (f *fakeRunner) Unmount(path string, _ gcsfusemount.ExecConfig) error {
	if err, ok := f.unmountErr[path]; ok {
		return err
	}

	f.mounted[path] = false

	return nil
}

func (f *fakeRunner) LazyUnmount(path string, _ gcsfusemount.ExecConfig) error {
	if err, ok := f.lazyUnmountErr[path]; ok {
		return err
	}

	f.mounted[path] = false

	return nil
}

func runCommand(t *testing.T, cmd *Command, args ...string) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	code = cmd.Run(context.Background(), strings.NewReader(""), &outBuf, &errBuf, args)

	return outBuf.String(), errBuf.String(), code
}

func TestParseCmd_PrintsCanonicalForm(t *testing.T) {
	t.Parallel()

	stdout, _, code := runCommand(t, ParseCmd(), "/mnt/a;bucket:/mnt/b")
	if code != 0 {
		t.Fatalf("ParseCmd exit code = %d, want 0; stdout=%q", code, stdout)
	}

	if !strings.Contains(stdout, "/mnt/a") || !strings.Contains(stdout, "/mnt/b") {
		t.Errorf("ParseCmd stdout = %q, want both mount points", stdout)
	}
}

func TestParseCmd_RejectsWrongArgCount(t *testing.T) {
	t.Parallel()

	_, stderr, code := runCommand(t, ParseCmd())
	if code == 0 {
		t.Fatalf("ParseCmd with no args: want non-zero exit, got 0")
	}

	if !strings.Contains(stderr, "expected exactly one argument") {
		t.Errorf("ParseCmd stderr = %q, want argument-count complaint", stderr)
	}
}

func TestCheckConflictCmd_NoConflict(t *testing.T) {
	t.Parallel()

	stdout, _, code := runCommand(t, CheckConflictCmd(), "/mnt/a", "/mnt/b")
	if code != 0 {
		t.Fatalf("CheckConflictCmd exit code = %d, want 0; stdout=%q", code, stdout)
	}

	if !strings.Contains(stdout, "no conflicts") {
		t.Errorf("CheckConflictCmd stdout = %q, want \"no conflicts\"", stdout)
	}
}

func TestCheckConflictCmd_ReportsConflict(t *testing.T) {
	t.Parallel()

	_, stderr, code := runCommand(t, CheckConflictCmd(), "/mnt/a", ":/mnt/a")
	if code == 0 {
		t.Fatal("CheckConflictCmd: want non-zero exit for a conflicting pair")
	}

	if !strings.Contains(stderr, "mnt/a") {
		t.Errorf("CheckConflictCmd stderr = %q, want mention of the conflicting mount point", stderr)
	}
}

func TestProbeCmd_ReportsMountedAndNotMounted(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.mounted["/mnt/a"] = true

	stdout, _, code := runCommand(t, ProbeCmd(runner), "/mnt/a")
	if code != 0 {
		t.Fatalf("ProbeCmd(mounted) exit code = %d, want 0", code)
	}

	if !strings.Contains(stdout, "mounted") {
		t.Errorf("ProbeCmd(mounted) stdout = %q", stdout)
	}

	stdout, _, code = runCommand(t, ProbeCmd(runner), "/mnt/b")
	if code == 0 {
		t.Fatal("ProbeCmd(not mounted): want non-zero exit, following mountpoint(1) convention")
	}

	if !strings.Contains(stdout, "not mounted") {
		t.Errorf("ProbeCmd(not mounted) stdout = %q", stdout)
	}
}

func TestMountCmd_EstablishesEveryMount(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	cfg := gcsfusemount.DefaultExecConfig()

	stdout, _, code := runCommand(t, MountCmd(runner, cfg), "--uid=1000", "--gid=1000", "/mnt/a;/mnt/b")
	if code != 0 {
		t.Fatalf("MountCmd exit code = %d, want 0; stdout=%q", code, stdout)
	}

	if !runner.mounted["/mnt/a"] || !runner.mounted["/mnt/b"] {
		t.Errorf("runner.mounted = %v, want both /mnt/a and /mnt/b", runner.mounted)
	}
}

func TestUnmountCmd_UnmountsEachPath(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.mounted["/mnt/a"] = true
	runner.mounted["/mnt/b"] = true

	cfg := gcsfusemount.DefaultExecConfig()

	stdout, _, code := runCommand(t, UnmountCmd(runner, cfg), "/mnt/a", "/mnt/b")
	if code != 0 {
		t.Fatalf("UnmountCmd exit code = %d, want 0; stdout=%q", code, stdout)
	}

	if runner.mounted["/mnt/a"] || runner.mounted["/mnt/b"] {
		t.Errorf("runner.mounted = %v, want both cleared", runner.mounted)
	}
}

func TestUnmountCmd_ReportsFailureButContinuesPastIt(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.mounted["/mnt/a"] = true
	runner.mounted["/mnt/b"] = true
	runner.unmountErr["/mnt/a"] = errUnmountFailed
	runner.lazyUnmountErr["/mnt/a"] = errUnmountFailed

	cfg := gcsfusemount.DefaultExecConfig()

	stdout, stderr, code := runCommand(t, UnmountCmd(runner, cfg), "/mnt/a", "/mnt/b")
	if code == 0 {
		t.Fatalf("UnmountCmd: want non-zero exit when /mnt/a fails, got stdout=%q", stdout)
	}

	if runner.mounted["/mnt/b"] {
		t.Errorf("runner.mounted[/mnt/b] still true, want unmount of the other path to proceed")
	}

	if !strings.Contains(stderr, "1 of 2 paths failed") {
		t.Errorf("UnmountCmd stderr = %q, want failure count", stderr)
	}
}

var errUnmountFailed = errUnmountFailedType{}

type errUnmountFailedType struct{}

func (errUnmountFailedType) Error() string { return "simulated unmount failure" }
