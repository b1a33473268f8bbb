// Package lockfile serializes writers across streakr processes with a pid file.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
	nowFunc         = time.Now
)

// ErrLocked is returned when another live streakr process holds the lock.
var ErrLocked = errors.New("another streakr process is writing")

// Lock is a held writer lock.
type Lock struct {
	path  string
	owner string
}

// Acquire takes the writer lock in dir. A lock left by a process that is no
// longer running is stale and taken over.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := filepath.Join(dir, constants.LockfileName)
	owner := ownerLine(getpidFunc())

	var lastErr error
	for attempt := 0; attempt < constants.LockRetries; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := f.WriteString(owner)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, owner: owner}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		stale, holder := inspect(path)
		if stale {
			logger.Warn("Removing stale lockfile", "path", path, "holder", holder)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
			}
			continue
		}

		lastErr = fmt.Errorf("%w (pid %s)", ErrLocked, holder)
		time.Sleep(constants.LockRetryDelay)
	}
	return nil, lastErr
}

// Release removes the lockfile if this process still owns it.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	content, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lockfile: %w", err)
	}
	if strings.TrimSpace(string(content)) != l.owner {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// Path returns the lockfile location.
func (l *Lock) Path() string {
	return l.path
}

// ownerLine is "<pid>|<executable>"; the executable guards against a recycled pid.
func ownerLine(pid int) string {
	exe := ""
	if p, err := findProcessFunc(pid); err == nil && p != nil {
		exe = p.Executable()
	}
	return fmt.Sprintf("%d|%s", pid, exe)
}

// inspect reports whether the lock at path is stale and who holds it.
func inspect(path string) (bool, string) {
	content, err := os.ReadFile(path)
	if err != nil {
		// Released between our create attempt and the read.
		return os.IsNotExist(err), "unknown"
	}

	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		// A half-written lock is only abandoned once it is old.
		info, statErr := os.Stat(path)
		if statErr != nil {
			return true, "unknown"
		}
		return nowFunc().Sub(info.ModTime()) > constants.LockStaleTimeout, "unknown"
	}
	holder := strconv.Itoa(pid)

	process, err := findProcessFunc(pid)
	if err != nil {
		// An unreadable process table proves nothing; treat the lock as held.
		return false, holder
	}
	if process == nil {
		return true, holder
	}
	if len(parts) == 2 && parts[1] != "" && process.Executable() != parts[1] {
		return true, holder
	}
	return false, holder
}
