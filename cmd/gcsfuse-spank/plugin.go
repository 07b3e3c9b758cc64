// Package main builds gcsfuse-spank as a cgo c-shared library: a thin
// shim between a workload manager's plug-in ABI and the gcsfusemount
// library. The four exported callbacks below mirror the stages a SPANK-
// style host drives a plug-in through (submission/allocator, then
// execution); see the Reexec* constants in gcsfusemount/process_unix.go
// for why the execution-side steps re-exec this same binary's hidden "__probe-as"/"__mount-exec"
// modes instead of raw fork().
//
// Build as a shared library:
//
//	go build --buildmode=c-shared -o gcsfuse-spank.so ./cmd/gcsfuse-spank
//
// This also emits gcsfuse-spank.h for the host's C glue code to #include.
package main

/*
#include <stdlib.h>

typedef void (*gcsfuse_log_fn)(const char *msg);
*/
import "C"

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/slurm-gcp/gcsfuse-mount/gcsfusemount"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// pluginState holds everything that must survive across the Init ->
// OptionCallback (*) -> UserInit -> Exit sequence for one step. The host
// gives these callbacks no user-data pointer, so a single file-scope
// instance is used under the invariant that the host runs exactly one
// step per process image; it is guarded by a mutex purely as a zero-cost
// defense against that invariant being violated by a future host.
var pluginState = struct {
	mu        sync.Mutex
	table     *gcsfusemount.SessionTable
	lifecycle *gcsfusemount.Lifecycle
	log       *gcsfusemount.CallbackLogger
	cfg       gcsfusemount.ExecConfig
}{}

// Init loads the plugin config and prepares this instance's Session Mount
// Table and Lifecycle manager. It does not register the --gcsfuse-mount
// option with the host; no host option-registration call is made from
// this package. infoFn/errFn
// are the host's log sinks (may be nil, e.g. in tests), bridged through
// CallbackLogger.
//
//export Init
func Init(infoFn, errFn C.gcsfuse_log_fn) C.int {
	pluginState.mu.Lock()
	defer pluginState.mu.Unlock()

	logger := &gcsfusemount.CallbackLogger{
		Info:  cCallbackToGo(infoFn),
		Error: cCallbackToGo(errFn),
	}

	cfg, err := gcsfusemount.LoadExecConfig(gcsfusemount.ConfigPathFromEnv(envMap()))
	if err != nil {
		logger.Errorf("loading plugin config: %v", err)

		return -1
	}

	pluginState.table = gcsfusemount.NewSessionTable()
	pluginState.log = logger
	pluginState.cfg = cfg
	pluginState.lifecycle = gcsfusemount.NewLifecycle(
		gcsfusemount.NewOSProcessRunner(selfPath()),
		pluginState.table,
		logger,
	)

	return 0
}

// OptionCallback handles one occurrence of --gcsfuse-mount=ARG. On the
// submission/allocator side it resolves ARG's relative mount points
// against cwd (the process working directory when cwd is empty),
// conflict-checks it against the current GCSFUSE_MOUNTS
// value, and appends it; the host is responsible for reading the
// returned accumulator value back into the job's environment (cgo
// cannot mutate the host's own environment representation directly, so
// the new value is handed back as a C string rather than written via
// os/exec's Env). remote is nonzero on the execution side, where the
// option is parsed but not re-resolved (the accumulator is already
// final by the time UserInit runs).
//
//export OptionCallback
func OptionCallback(arg *C.char, currentAccumulator *C.char, cwd *C.char, remote C.int) *C.char {
	argStr := C.GoString(arg)
	current := C.GoString(currentAccumulator)

	if remote != 0 {
		_, err := gcsfusemount.ParseMountList(argStr)
		if err != nil {
			logError("OptionCallback: %v", err)

			return nil
		}

		return C.CString(gcsfusemount.AppendMount(current, argStr))
	}

	resolved, err := gcsfusemount.ResolveMountsForSubmission(argStr, C.GoString(cwd))
	if err != nil {
		logError("OptionCallback: %v", err)

		return nil
	}

	err = gcsfusemount.CheckConflicts(current, resolved)
	if err != nil {
		logError("OptionCallback: %v", err)

		return nil
	}

	return C.CString(gcsfusemount.AppendMount(current, resolved))
}

// UserInit establishes every mount named in accumulator under (uid,
// gid). Returns 0 on total success, -1 if any single mount failed; mounts
// that did succeed are kept (not torn back down) so a later Exit can
// still clean them up.
//
//export UserInit
func UserInit(accumulator *C.char, uid, gid C.int) C.int {
	pluginState.mu.Lock()
	defer pluginState.mu.Unlock()

	if pluginState.lifecycle == nil {
		return -1
	}

	specs, err := gcsfusemount.ParseMountList(C.GoString(accumulator))
	if err != nil {
		pluginState.log.Errorf("UserInit: %v", err)

		return -1
	}

	identity := gcsfusemount.JobIdentity{UID: int(uid), GID: int(gid)}

	err = pluginState.lifecycle.EstablishAll(specs, identity, pluginState.cfg)
	if err != nil {
		pluginState.log.Errorf("UserInit: %v", err)

		return -1
	}

	return 0
}

// Exit tears down every mount this instance established, best-effort.
// Teardown errors are logged but never change the return value: a host
// killing a job shouldn't be blocked on a stuck unmount.
//
//export Exit
func Exit() C.int {
	pluginState.mu.Lock()
	defer pluginState.mu.Unlock()

	if pluginState.lifecycle == nil {
		return 0
	}

	errs := pluginState.lifecycle.Teardown(pluginState.cfg)
	for _, err := range errs {
		pluginState.log.Errorf("Exit: %v", err)
	}

	pluginState.table = nil
	pluginState.lifecycle = nil

	return 0
}

// GcsfuseMountVersion reports the build's version string, letting a host
// query which plugin build is loaded without restarting the scheduler.
//
//export GcsfuseMountVersion
func GcsfuseMountVersion() *C.char {
	return C.CString(version)
}

func logError(format string, args ...any) {
	if pluginState.log != nil {
		pluginState.log.Errorf(format, args...)

		return
	}

	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func cCallbackToGo(fn C.gcsfuse_log_fn) func(string) {
	if fn == nil {
		return nil
	}

	return func(msg string) {
		cMsg := C.CString(msg)
		defer C.free(unsafe.Pointer(cMsg))

		fn(cMsg)
	}
}

func selfPath() string {
	resolved, err := os.Executable()
	if err != nil {
		return "gcsfuse-spank"
	}

	return resolved
}

func envMap() map[string]string {
	env := make(map[string]string, len(os.Environ()))

	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]

				break
			}
		}
	}

	return env
}

// main is required to build a c-shared library. The host dlopen's this
// file and calls the exported symbols directly, never exec'ing it, so
// main never runs in that mode. It is, however, exec'd as a plain
// executable by OSProcessRunner itself, to reach the hidden
// "__probe-as"/"__mount-exec" re-exec modes (see gcsfusemount/reexec.go)
// -- a cgo c-shared artifact is still a valid ELF executable on Linux.
func main() {
	if len(os.Args) < 2 {
		return
	}

	switch os.Args[1] {
	case gcsfusemount.ReexecProbeAs:
		os.Exit(gcsfusemount.RunProbeAs(os.Args[2:]))
	case gcsfusemount.ReexecMountExec:
		os.Exit(gcsfusemount.RunMountExec(os.Args[2:]))
	}
}
