//go:build deadlock

// Package syncutil provides the critical-section lock shared by interrupt-level
// and main-loop code. This file is compiled when building with -tags=deadlock.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

func init() {
	// Critical sections only copy a frame in or out; anything near this long
	// means a section escaped its scope.
	deadlock.Opts.DeadlockTimeout = 100 * time.Millisecond
}

// Mutex wraps deadlock.Mutex for deadlock detection.
type Mutex struct {
	deadlock.Mutex
}
