package gcsfusemount

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLifecycle_Teardown_ReverseOrderAndGraceful(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	table := NewSessionTable()

	table.Add(SessionEntry{MountPoint: "/mnt/a", DaemonPID: 1})
	table.Add(SessionEntry{MountPoint: "/mnt/b", DaemonPID: 2})

	var order []string

	runner.unmountErr = nil // use default success path, tracked via wrapper below
	lifecycle := NewLifecycle(&orderTrackingRunner{fakeRunner: runner, order: &order}, table, nil)

	errs := lifecycle.Teardown(DefaultExecConfig())
	if len(errs) != 0 {
		t.Fatalf("Teardown errors: %v", errs)
	}

	want := []string{"/mnt/b", "/mnt/a"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("teardown order mismatch (-want +got):\n%s", diff)
	}

	if table.Len() != 0 {
		t.Errorf("SessionTable.Len() after Teardown = %d, want 0", table.Len())
	}
}

func TestLifecycle_Teardown_KillsDaemonEvenAfterGracefulUnmountSucceeds(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	table := NewSessionTable()
	table.Add(SessionEntry{MountPoint: "/mnt/a", DaemonPID: 42})

	lifecycle := NewLifecycle(runner, table, nil)

	errs := lifecycle.Teardown(DefaultExecConfig())
	if len(errs) != 0 {
		t.Fatalf("Teardown errors: %v", errs)
	}

	if len(runner.killed) != 1 || runner.killed[0] != 42 {
		t.Errorf("runner.killed = %v, want [42] even though graceful unmount succeeded", runner.killed)
	}
}

func TestLifecycle_Teardown_FallsBackToKillAndLazyUnmount(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.unmountErr["/mnt/a"] = errDummy

	table := NewSessionTable()
	table.Add(SessionEntry{MountPoint: "/mnt/a", DaemonPID: 7})

	lifecycle := NewLifecycle(runner, table, nil)

	errs := lifecycle.Teardown(DefaultExecConfig())
	if len(errs) != 0 {
		t.Fatalf("Teardown errors: %v (want lazy unmount to recover)", errs)
	}

	if len(runner.killed) != 1 || runner.killed[0] != 7 {
		t.Errorf("runner.killed = %v, want [7]", runner.killed)
	}
}

func TestLifecycle_Teardown_ReportsBothFailures(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.unmountErr["/mnt/a"] = errDummy
	runner.lazyUnmountErr["/mnt/a"] = errDummy

	table := NewSessionTable()
	table.Add(SessionEntry{MountPoint: "/mnt/a", DaemonPID: 7})

	lifecycle := NewLifecycle(runner, table, nil)

	errs := lifecycle.Teardown(DefaultExecConfig())
	if len(errs) != 1 {
		t.Fatalf("Teardown errors = %v, want exactly one combined error", errs)
	}
}

func TestLifecycle_Teardown_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.unmountErr["/mnt/a"] = errDummy
	runner.lazyUnmountErr["/mnt/a"] = errDummy

	table := NewSessionTable()
	table.Add(SessionEntry{MountPoint: "/mnt/a", DaemonPID: 1})
	table.Add(SessionEntry{MountPoint: "/mnt/b", DaemonPID: 2})

	lifecycle := NewLifecycle(runner, table, nil)

	errs := lifecycle.Teardown(DefaultExecConfig())
	if len(errs) != 1 {
		t.Fatalf("Teardown errors = %v, want exactly one (only /mnt/a failed)", errs)
	}

	if table.Len() != 0 {
		t.Errorf("SessionTable.Len() = %d, want 0 (table cleared regardless of failures)", table.Len())
	}
}

func TestForceUnmount_FallsBackToLazy(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.unmountErr["/mnt/a"] = errDummy

	err := ForceUnmount(runner, "/mnt/a", DefaultExecConfig())
	if err != nil {
		t.Fatalf("ForceUnmount: %v", err)
	}
}

var errDummy = errUnmountForTest{}

type errUnmountForTest struct{}

func (errUnmountForTest) Error() string { return "simulated unmount failure" }

// orderTrackingRunner wraps fakeRunner to record the sequence Unmount is
// called in, so teardown-order can be asserted independently of the
// fakeRunner's own bookkeeping.
type orderTrackingRunner struct {
	*fakeRunner

	order *[]string
}

func (o *orderTrackingRunner) Unmount(path string, cfg ExecConfig) error {
	*o.order = append(*o.order, path)

	return o.fakeRunner.Unmount(path, cfg)
}
