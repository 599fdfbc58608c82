package runlock

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	root := t.TempDir()

	lock, err := Acquire(root)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if lock.Path() == "" || !strings.Contains(filepath.Base(lock.Path()), "splatconv-") {
		t.Fatalf("unexpected lock path %q", lock.Path())
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	again, err := Acquire(root)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestAcquireConflict(t *testing.T) {
	root := t.TempDir()

	first, err := Acquire(root)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	if _, err := Acquire(root); err == nil {
		t.Fatal("expected second Acquire on the same root to fail")
	} else if !strings.Contains(err.Error(), "already writing to") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDifferentRootsDoNotConflict(t *testing.T) {
	first, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	second, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatalf("Acquire on a different root: %v", err)
	}
	defer second.Release()
}

func TestLockPathStability(t *testing.T) {
	root := t.TempDir()

	a, err := lockPath(root)
	if err != nil {
		t.Fatalf("lockPath: %v", err)
	}
	b, err := lockPath(root + string(filepath.Separator) + ".")
	if err != nil {
		t.Fatalf("lockPath: %v", err)
	}
	if a != b {
		t.Fatalf("equivalent roots produced different lock paths: %q vs %q", a, b)
	}

	other, err := lockPath(filepath.Join(root, "sub"))
	if err != nil {
		t.Fatalf("lockPath: %v", err)
	}
	if other == a {
		t.Fatal("different roots produced the same lock path")
	}
}

func TestReleaseNil(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
	if lock.Path() != "" {
		t.Fatal("nil Path should be empty")
	}
}
