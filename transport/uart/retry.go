// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uart

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cubesat-eps/go-eps"
	"go.bug.st/serial"
)

// RetryConfig controls how Open waits for a serial adapter to appear.
type RetryConfig struct {
	// MaxAttempts is the number of open attempts (<= 1 opens once)
	MaxAttempts int
	// InitialBackoff is the wait after the first failure
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between attempts
	MaxBackoff time.Duration
	// BackoffMultiplier grows the wait after each failure
	BackoffMultiplier float64
	// Jitter adds up to this fraction of the wait at random
	Jitter float64
}

// DefaultRetryConfig suits a USB adapter that is still enumerating.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

// Open is New with retries while the port is missing or busy.
func Open(ctx context.Context, portName string, baudRate int, d *eps.Dispatcher, rc *RetryConfig) (*Transport, error) {
	var t *Transport
	err := retry(ctx, rc, isTransientOpenError, func() error {
		var err error
		t, err = New(portName, baudRate, d)
		if err != nil {
			eps.Debugln("serial open failed:", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func isTransientOpenError(err error) bool {
	var pe *serial.PortError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Code() {
	case serial.PortNotFound, serial.PortBusy:
		return true
	default:
		return false
	}
}

func retry(ctx context.Context, rc *RetryConfig, retryable func(error) bool, fn func() error) error {
	if rc == nil {
		rc = DefaultRetryConfig()
	}
	if rc.MaxAttempts <= 1 {
		return fn()
	}

	var lastErr error
	backoff := rc.InitialBackoff
	for attempt := range rc.MaxAttempts {
		if ctx.Err() != nil {
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("open cancelled: %w", ctx.Err())
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err

		if attempt == rc.MaxAttempts-1 {
			break
		}
		if !sleepContext(ctx, jittered(backoff, rc.Jitter)) {
			return lastErr
		}
		backoff = nextBackoff(backoff, rc)
	}
	return lastErr
}

// sleepContext waits d and reports false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(backoff time.Duration, rc *RetryConfig) time.Duration {
	next := time.Duration(float64(backoff) * rc.BackoffMultiplier)
	if rc.MaxBackoff > 0 && next > rc.MaxBackoff {
		return rc.MaxBackoff
	}
	return next
}

func jittered(d time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return d
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return d
	}
	frac := float64(binary.LittleEndian.Uint64(b[:])) / float64(1<<64)
	return d + time.Duration(frac*factor*float64(d))
}
