//go:build linux

package gcsfusemount

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsMountpoint_RootIsAlwaysMounted(t *testing.T) {
	t.Parallel()

	mounted, err := IsMountpoint("/")
	if err != nil {
		t.Fatalf("IsMountpoint(\"/\"): %v", err)
	}

	if !mounted {
		t.Error("IsMountpoint(\"/\") = false, want true")
	}
}

func TestIsMountpoint_PlainDirectoryIsNotAMountpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")

	err := os.Mkdir(sub, 0o755)
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	mounted, err := IsMountpoint(sub)
	if err != nil {
		t.Fatalf("IsMountpoint(%q): %v", sub, err)
	}

	if mounted {
		t.Errorf("IsMountpoint(%q) = true, want false", sub)
	}
}

func TestIsMountpoint_NonExistentPathIsNotAMountpoint(t *testing.T) {
	t.Parallel()

	mounted, err := IsMountpoint(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("IsMountpoint: %v", err)
	}

	if mounted {
		t.Error("IsMountpoint(nonexistent) = true, want false")
	}
}

func TestIsMountpoint_RegularFileIsNotAMountpoint(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file")

	err := os.WriteFile(path, []byte("x"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mounted, err := IsMountpoint(path)
	if err != nil {
		t.Fatalf("IsMountpoint(%q): %v", path, err)
	}

	if mounted {
		t.Errorf("IsMountpoint(%q) = true, want false (regular file)", path)
	}
}
