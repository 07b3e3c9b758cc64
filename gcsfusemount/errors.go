package gcsfusemount

import (
	"errors"
	"strconv"
)

// Sentinel errors identifying each error kind. Callers should match
// against these with errors.Is; detail is attached via %w-wrapping on a
// per-call basis.
var (
	// ErrParse indicates a mount spec token failed to parse.
	ErrParse = errors.New("gcsfusemount: malformed mount spec")

	// ErrConflict indicates a new mount would bind a different bucket to an
	// already-claimed mount point.
	ErrConflict = errors.New("gcsfusemount: conflicting mount point")

	// ErrValidation indicates the target mount directory failed ownership,
	// emptiness, or permission checks.
	ErrValidation = errors.New("gcsfusemount: target directory validation failed")

	// ErrPrivilege indicates a privilege-drop operation (setresuid/setresgid)
	// failed.
	ErrPrivilege = errors.New("gcsfusemount: privilege drop failed")

	// ErrFork indicates the process could not be forked.
	ErrFork = errors.New("gcsfusemount: fork failed")

	// ErrExec indicates an external command could not be started or its
	// exec(2) call failed in the child.
	ErrExec = errors.New("gcsfusemount: exec failed")

	// ErrMountTimeout indicates the daemon did not reach a mounted state
	// within the configured retry budget.
	ErrMountTimeout = errors.New("gcsfusemount: timed out waiting for mount")

	// ErrUnmount indicates both the graceful and lazy unmount attempts
	// failed for a mount point.
	ErrUnmount = errors.New("gcsfusemount: unmount failed")

	// ErrIO indicates a failure reading/writing the accumulator environment
	// variable or another I/O boundary operation.
	ErrIO = errors.New("gcsfusemount: I/O failure")
)

// ParseError reports a malformed mount spec token.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return "gcsfusemount: cannot parse mount spec " + quote(e.Token) + ": " + e.Reason
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ConflictError reports an accumulator addition that would rebind an
// already-claimed mount point to a different bucket.
type ConflictError struct {
	MountPoint   string
	ExistingName string
	NewName      string
}

func (e *ConflictError) Error() string {
	return "gcsfusemount: mount point " + quote(e.MountPoint) + " is already bound to " +
		quote(e.ExistingName) + ", cannot rebind to " + quote(e.NewName)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ValidationError reports why a mount target directory failed validation.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return "gcsfusemount: " + quote(e.Path) + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MountTimeoutError reports a mount that never reached a mounted state.
type MountTimeoutError struct {
	MountPoint string
	Retries    int
}

func (e *MountTimeoutError) Error() string {
	return "gcsfusemount: " + quote(e.MountPoint) + " did not become a mountpoint after " +
		strconv.Itoa(e.Retries) + " retries"
}

func (e *MountTimeoutError) Unwrap() error { return ErrMountTimeout }

func quote(s string) string { return "\"" + s + "\"" }

// joinErrors collapses a slice of per-item failures into a single error,
// or nil if errs is empty. Used by best-effort list processing (establish
// all mounts, tear down all mounts) where one failure must not stop the
// others but the overall outcome still needs to be reported.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	return errors.Join(errs...)
}
