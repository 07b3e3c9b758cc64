//go:build linux

package gcsfusemount

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBucketArgOrEmpty(t *testing.T) {
	t.Parallel()

	bucket := "my-bucket"
	empty := ""

	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{name: "nil bucket", spec: Spec{}, want: "-"},
		{name: "explicit empty bucket", spec: Spec{Bucket: &empty}, want: "-"},
		{name: "named bucket", spec: Spec{Bucket: &bucket}, want: "my-bucket"},
	}

	for _, tt := range tests {
		if got := bucketArgOrEmpty(tt.spec); got != tt.want {
			t.Errorf("%s: bucketArgOrEmpty() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCombineFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                    string
		defaultFlags, specFlags string
		want                    string
	}{
		{name: "both empty", defaultFlags: "", specFlags: "", want: ""},
		{name: "default only", defaultFlags: "--implicit-dirs", specFlags: "", want: "--implicit-dirs"},
		{name: "spec only", defaultFlags: "", specFlags: "--only-dir=foo", want: "--only-dir=foo"},
		{
			name:         "both",
			defaultFlags: "--implicit-dirs",
			specFlags:    "--only-dir=foo",
			want:         "--implicit-dirs --only-dir=foo",
		},
	}

	for _, tt := range tests {
		if got := combineFlags(tt.defaultFlags, tt.specFlags); got != tt.want {
			t.Errorf("%s: combineFlags() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestAssembleDaemonArgv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                             string
		daemonPath, bucket, mount, flags string
		want                             []string
	}{
		{
			name:       "named bucket with flags",
			daemonPath: "/usr/bin/gcsfuse",
			bucket:     "my-bucket",
			mount:      "/mnt/x",
			flags:      "--implicit-dirs --only-dir=foo",
			want:       []string{"/usr/bin/gcsfuse", "--implicit-dirs", "--only-dir=foo", "my-bucket", "/mnt/x"},
		},
		{
			name:       "no bucket",
			daemonPath: "/usr/bin/gcsfuse",
			bucket:     "-",
			mount:      "/mnt/x",
			flags:      "",
			want:       []string{"/usr/bin/gcsfuse", "/mnt/x"},
		},
		{
			name:       "no flags",
			daemonPath: "/usr/bin/gcsfuse",
			bucket:     "b",
			mount:      "/mnt/x",
			flags:      "",
			want:       []string{"/usr/bin/gcsfuse", "b", "/mnt/x"},
		},
	}

	for _, tt := range tests {
		got := assembleDaemonArgv(tt.daemonPath, tt.bucket, tt.mount, tt.flags)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: assembleDaemonArgv() mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestValidateMountTarget_CreatesMissingDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mnt")

	err := validateMountTarget(dir, os.Getuid(), os.Getgid())
	if err != nil {
		t.Fatalf("validateMountTarget: %v", err)
	}

	info, statErr := os.Stat(dir)
	if statErr != nil {
		t.Fatalf("Stat: %v", statErr)
	}

	if !info.IsDir() {
		t.Error("validateMountTarget did not create a directory")
	}
}

func TestValidateMountTarget_EmptyExistingDirectoryOK(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := validateMountTarget(dir, os.Getuid(), os.Getgid())
	if err != nil {
		t.Errorf("validateMountTarget on empty dir: %v", err)
	}
}

func TestValidateMountTarget_RejectsWrongOwner(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var validationErr *ValidationError

	// dir is owned by the current process's uid; claim it belongs to some
	// other uid and expect the ownership check to reject it.
	err := validateMountTarget(dir, os.Getuid()+1, os.Getgid())
	if !errors.As(err, &validationErr) {
		t.Fatalf("validateMountTarget on wrong-owner dir: got %v, want *ValidationError", err)
	}
}

func TestValidateMountTarget_RejectsNonEmptyDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "existing"), []byte("x"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var validationErr *ValidationError

	err = validateMountTarget(dir, os.Getuid(), os.Getgid())
	if !errors.As(err, &validationErr) {
		t.Fatalf("validateMountTarget on non-empty dir: got %v, want *ValidationError", err)
	}
}

func TestValidateMountTarget_RejectsRegularFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file")

	err := os.WriteFile(path, []byte("x"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var validationErr *ValidationError

	err = validateMountTarget(path, os.Getuid(), os.Getgid())
	if !errors.As(err, &validationErr) {
		t.Fatalf("validateMountTarget on regular file: got %v, want *ValidationError", err)
	}
}
