// Package lockfile provides the per-source processing lock and the integrity
// witness that detects mid-processing mutation.
//
// The lock is a sibling file next to the source video. Its content is three
// lines, pid, creation epoch seconds, and the canonical source path, so an
// operator can always tell who holds a file and since when.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Suffix is appended to the source path to form the lock path.
const Suffix = ".javtidy.lock"

// ErrContended reports that a live process owns the lock.
var ErrContended = errors.New("lock: held by another process")

// ErrVanished reports that the lock file was already gone at release time.
var ErrVanished = errors.New("lock: file vanished before release")

// Lock is a held processing lock.
type Lock struct {
	path   string
	source string
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

type owner struct {
	pid     int
	created time.Time
	source  string
}

// Acquire takes the processing lock for source. A lock whose owner is dead or
// whose age exceeds staleAfter is treated as abandoned and replaced.
func Acquire(source string, staleAfter time.Duration) (*Lock, error) {
	canonical, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", source, err)
	}
	path := canonical + Suffix
	for attempt := 0; attempt < 2; attempt++ {
		err := tryCreate(path, canonical)
		if err == nil {
			return &Lock{path: path, source: canonical}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("lock %s: %w", source, err)
		}
		cur, readErr := readOwner(path)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				continue
			}
			return nil, fmt.Errorf("lock %s: unreadable lock file: %w", source, readErr)
		}
		if !stale(cur, staleAfter) {
			return nil, fmt.Errorf("lock %s: pid %d since %s: %w",
				source, cur.pid, cur.created.Format(time.RFC3339), ErrContended)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("lock %s: removing stale lock: %w", source, err)
		}
	}
	return nil, fmt.Errorf("lock %s: %w", source, ErrContended)
}

// Release removes the lock file. ErrVanished means someone else deleted it;
// callers log that and continue.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return fmt.Errorf("lock %s: %w", l.source, ErrVanished)
	}
	if err != nil {
		return fmt.Errorf("lock %s: release: %w", l.source, err)
	}
	return nil
}

func tryCreate(path, canonical string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	content := fmt.Sprintf("%d\n%d\n%s\n", os.Getpid(), time.Now().Unix(), canonical)
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func readOwner(path string) (owner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return owner{}, err
	}
	lines := strings.SplitN(strings.TrimRight(string(data), "\n"), "\n", 3)
	if len(lines) < 3 {
		return owner{}, fmt.Errorf("malformed lock content (%d lines)", len(lines))
	}
	pid, err := strconv.Atoi(lines[0])
	if err != nil {
		return owner{}, fmt.Errorf("malformed pid line %q", lines[0])
	}
	epoch, err := strconv.ParseInt(lines[1], 10, 64)
	if err != nil {
		return owner{}, fmt.Errorf("malformed epoch line %q", lines[1])
	}
	return owner{pid: pid, created: time.Unix(epoch, 0), source: lines[2]}, nil
}

func stale(o owner, staleAfter time.Duration) bool {
	if !pidAlive(o.pid) {
		return true
	}
	return time.Since(o.created) > staleAfter
}

// pidAlive probes with signal 0. EPERM still means the process exists.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
