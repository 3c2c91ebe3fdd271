package outputs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	runLockFileNameConstant       = ".repoaudit.lock"
	runLockHeldMessageConstant    = "another repoaudit run is using this directory"
	runLockDirectoryErrorTemplate = "unable to prepare lock directory %s: %w"
	runLockAcquireErrorTemplate   = "unable to lock %s: %w"
	runLockReleaseErrorTemplate   = "unable to release %s: %w"
)

// ErrRunLockHeld indicates another process holds the directory lock.
var ErrRunLockHeld = errors.New(runLockHeldMessageConstant)

// RunLock guards the shared files of a directory against concurrent runs.
type RunLock struct {
	lock *flock.Flock
	path string
}

// AcquireRunLock takes the lock of directory without blocking.
// ErrRunLockHeld is returned when another run owns it.
func AcquireRunLock(directory string) (*RunLock, error) {
	if mkdirError := os.MkdirAll(directory, outputDirectoryPermissions); mkdirError != nil {
		return nil, fmt.Errorf(runLockDirectoryErrorTemplate, directory, mkdirError)
	}

	lockPath := filepath.Join(directory, runLockFileNameConstant)
	fileLock := flock.New(lockPath)
	locked, lockError := fileLock.TryLock()
	if lockError != nil {
		return nil, fmt.Errorf(runLockAcquireErrorTemplate, lockPath, lockError)
	}
	if !locked {
		return nil, fmt.Errorf(runLockAcquireErrorTemplate, lockPath, ErrRunLockHeld)
	}

	return &RunLock{lock: fileLock, path: lockPath}, nil
}

// Path returns the lock file location.
func (runLock *RunLock) Path() string {
	return runLock.path
}

// Release unlocks the lock file. The file stays on disk: unlinking it would let a
// waiter holding the old inode and a newcomer creating a fresh file both own the lock.
func (runLock *RunLock) Release() error {
	if runLock == nil || runLock.lock == nil {
		return nil
	}
	if unlockError := runLock.lock.Unlock(); unlockError != nil {
		return fmt.Errorf(runLockReleaseErrorTemplate, runLock.path, unlockError)
	}
	return nil
}
