//go:build !deadlock

// Package syncutil provides the critical-section lock shared by interrupt-level
// and main-loop code. By default it is a plain sync.Mutex with zero overhead.
// Build with -tags=deadlock to run every critical section under
// github.com/sasha-s/go-deadlock, which reports sections held too long.
package syncutil

import "sync"

// Mutex wraps sync.Mutex. Build with -tags=deadlock for deadlock detection.
//
//nolint:gocritic // Intentionally embedding sync.Mutex to expose its interface
type Mutex struct {
	sync.Mutex
}
