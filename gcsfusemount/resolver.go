package gcsfusemount

import (
	"fmt"
	"os"
	"path"
	"strings"
)

// ResolveMounts rewrites every relative mount_point in a semicolon-delimited
// mount list to an absolute path using cwd as the base directory, preserving
// each token's bucket/flags layout.
//
// cwd must be supplied by the caller; ResolveMounts never calls os.Getwd().
// The execution side (UserInit) must always pass the job's working
// directory explicitly -- the current directory of the plug-in process is
// meaningless on the execution node. Submission-side callers that want the
// "query the process cwd" convenience should call
// ResolveMountsForSubmission instead.
//
// Guarantees:
//   - re-splitting the output by ';' yields the same number of tokens as
//     the input;
//   - every output token's mount_point is absolute;
//   - idempotent when every input mount_point is already absolute.
//
// An empty list input yields the empty string.
func ResolveMounts(list string, cwd string) (string, error) {
	if list == "" {
		return "", nil
	}

	if cwd == "" {
		return "", fmt.Errorf("%w: resolver requires a non-empty cwd", ErrIO)
	}

	tokens := SplitMountList(list)
	resolved := make([]string, 0, len(tokens))

	for _, token := range tokens {
		spec, err := ParseSpec(token)
		if err != nil {
			return "", err
		}

		spec.MountPoint = resolveMountPoint(spec.MountPoint, cwd)
		resolved = append(resolved, spec.String())
	}

	return JoinMountList(resolved), nil
}

// ResolveMountsForSubmission behaves like ResolveMounts, but queries the
// process working directory via os.Getwd() when cwd is empty. This must
// only be called from the submission-side option callback; calling it from
// an execution-node callback would silently resolve paths against the
// plug-in's own cwd rather than the job's.
func ResolveMountsForSubmission(list string, cwd string) (string, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: getwd: %w", ErrIO, err)
		}

		cwd = wd
	}

	return ResolveMounts(list, cwd)
}

// resolveMountPoint leaves absolute paths untouched; for relative paths it
// strips a leading "./" and joins against cwd.
func resolveMountPoint(mountPoint, cwd string) string {
	if path.IsAbs(mountPoint) {
		return mountPoint
	}

	mountPoint = strings.TrimPrefix(mountPoint, "./")

	return cwd + "/" + mountPoint
}
