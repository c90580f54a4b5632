// Package lockfile enforces one active logger per adapter: the diagnostic
// session is stateful and non-reentrant, so two processes polling the same
// device would corrupt response framing.
package lockfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/obdctl/internal/errors"
)

// Acquire writes a PID lockfile derived from the adapter path. It fails
// with ErrAlreadyRunning if another live process holds the lock; a stale
// lock from a dead process is taken over.
func Acquire(adapter string) error {
	path := lockPath(adapter)

	if bytes, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
		if err == nil && pid > 0 {
			process, err := os.FindProcess(pid)
			if err == nil && process.Signal(syscall.Signal(0)) == nil {
				return errors.WithData(errors.ErrAlreadyRunning, adapter)
			}
		}
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Release removes the lockfile for the adapter.
func Release(adapter string) error {
	path := lockPath(adapter)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func lockPath(adapter string) string {
	sanitized := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '-'
	}, adapter)

	return filepath.Join(os.TempDir(), "obdctl-"+sanitized+".pid")
}
