//go:build unix

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const lockPollInterval = 25 * time.Millisecond

// fixtureLock serializes provisioning of one fixture directory. The holder
// writes its pid into the lock file so a stuck waiter can name it.
type fixtureLock struct {
	path string
	file *os.File
}

func lockFixture(ctx context.Context, path string, timeout time.Duration) (*fixtureLock, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	lock := &fixtureLock{path: path, file: f}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			lock.recordHolder()
			return lock, nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			_ = f.Close()
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}

		var cause error
		select {
		case <-ctx.Done():
			cause = ctx.Err()
		case <-deadline.C:
			cause = context.DeadlineExceeded
		case <-time.After(lockPollInterval):
			continue
		}
		holder := lock.holder()
		_ = f.Close()
		if holder != 0 {
			return nil, fmt.Errorf("bootstrapcmdtest: fixture %s held by pid %d: %w", path, holder, cause)
		}
		return nil, fmt.Errorf("bootstrapcmdtest: fixture %s is locked: %w", path, cause)
	}
}

func (l *fixtureLock) recordHolder() {
	if err := l.file.Truncate(0); err != nil {
		return
	}
	_, _ = l.file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
}

func (l *fixtureLock) holder() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// Release drops the lock. The lock file itself stays for the next run.
func (l *fixtureLock) Release() {
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
}
