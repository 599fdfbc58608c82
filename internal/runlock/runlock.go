// Package runlock serializes batch runs that target the same output root.
package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock guards an output root against concurrent batch runs. Runs
// against different roots hold different locks and proceed in
// parallel.
type Lock struct {
	lock *flock.Flock
	path string
}

// Acquire takes a non-blocking lock scoped to outputRoot. It fails
// when another process already holds the lock for the same root.
func Acquire(outputRoot string) (*Lock, error) {
	path, err := lockPath(outputRoot)
	if err != nil {
		return nil, err
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another conversion run is already writing to %s", outputRoot)
	}
	return &Lock{lock: fl, path: path}, nil
}

// Release drops the lock. The lock file is left in place; the flock
// itself is what serializes runs.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// Path reports the lock file location, mainly for logging.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// lockPath derives a stable per-root lock file under the system temp
// directory. The absolute root is hashed so the file name stays valid
// no matter what characters the root contains.
func lockPath(outputRoot string) (string, error) {
	abs, err := filepath.Abs(outputRoot)
	if err != nil {
		return "", fmt.Errorf("resolve output root: %w", err)
	}
	digest := sha256.Sum256([]byte(abs))
	name := fmt.Sprintf("splatconv-%s.lock", hex.EncodeToString(digest[:])[:12])
	return filepath.Join(os.TempDir(), name), nil
}
