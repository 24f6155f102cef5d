package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// writePIDFile records the server's pid at path. With lock set the file is
// held under an exclusive flock so a second server on the same path fails
// to start. The returned release func removes the file.
func writePIDFile(path string, lock bool) (release func(), err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		if lock {
			if err := ownerAlive(path); err != nil {
				return nil, err
			}
		}
		f, err = os.OpenFile(path, os.O_WRONLY, 0644)
	}
	if err != nil {
		return nil, fmt.Errorf("pid file %s: %w", path, err)
	}

	if lock {
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			f.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				return nil, fmt.Errorf("pid file %s is locked: another server is running", path)
			}
			return nil, fmt.Errorf("locking pid file: %w", err)
		}
	}

	// truncate only once the lock is ours
	err = f.Truncate(0)
	if err == nil {
		_, err = fmt.Fprintf(f, "%d\n", os.Getpid())
	}
	if err == nil {
		err = f.Sync()
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing pid file: %w", err)
	}

	return func() {
		// closing drops the flock
		f.Close()
		os.Remove(path)
	}, nil
}

// ownerAlive inspects a leftover pid file. A dead owner is only reported,
// the caller overwrites the file; a live one that lost its lock is an error.
func ownerAlive(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading existing pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return fmt.Errorf("corrupted pid file %s (contains %q)", path, data)
	}

	// FindProcess never fails on unix; signal 0 probes existence
	proc, _ := os.FindProcess(pid)
	err = proc.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		if pid == os.Getpid() {
			return nil
		}
		return fmt.Errorf("process %d from pid file %s is still running", pid, path)
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		return nil
	default:
		return fmt.Errorf("process %d exists but cannot be verified: %w", pid, err)
	}
}
