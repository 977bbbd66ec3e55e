//go:build !unix

package main

import (
	"context"
	"time"
)

// fixtureLock is a no-op where flock is unavailable; transcripts run on unix.
type fixtureLock struct{}

func lockFixture(context.Context, string, time.Duration) (*fixtureLock, error) {
	return &fixtureLock{}, nil
}

func (*fixtureLock) Release() {}
