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

// Package polling runs the EPS node's cooperative main loop: each pass moves
// at most one inbound frame through its handler and one outbound frame to the
// bus driver, and battery shunt control runs on its own period between
// passes.
package polling

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cubesat-eps/go-eps"
)

// Node is the part of eps.Node the loop drives.
type Node interface {
	ProcessNext() (processed bool, err error)
	SendNext(bus eps.BusDriver) (sent bool, err error)
	ControlShunts() error
}

// Metrics tracks operational metrics for Loop
type Metrics struct {
	Passes          int64         // Total number of passes
	FramesProcessed int64         // Inbound frames taken off the queue
	ProcessErrors   int64         // Inbound frames that were dropped
	FramesSent      int64         // Transmissions requested from the bus driver
	SendErrors      int64         // Failed transmit requests
	ShuntRuns       int64         // Shunt control steps
	ShuntErrors     int64         // Failed shunt control steps
	LastPassLatency time.Duration // Duration of last pass
}

// Loop is the node's main loop. Step may be called directly instead of
// Start, but not while the loop is running.
type Loop struct {
	node     Node
	bus      eps.BusDriver
	config   *Config
	stopChan chan struct{}
	wg       sync.WaitGroup // Tracks loop goroutine lifecycle
	// Atomic counters for metrics
	passes          int64
	framesProcessed int64
	processErrors   int64
	framesSent      int64
	sendErrors      int64
	shuntRuns       int64
	shuntErrors     int64
	lastPassLatency int64 // in nanoseconds
	// Adaptive interval state
	currentInterval int64 // in nanoseconds
	lastActivity    int64 // Timestamp of last pass that moved a frame
	lastShunt       int64 // Timestamp of last shunt control step
	// Running state to prevent multiple goroutines
	running int64 // 0 = stopped, 1 = running
}

// NewLoop creates a loop driving node and transmitting through bus. A nil
// config uses DefaultConfig.
func NewLoop(node Node, bus eps.BusDriver, config *Config) (*Loop, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", eps.ErrInvalidConfig, err)
	}
	now := time.Now().UnixNano()
	return &Loop{
		node:            node,
		bus:             bus,
		config:          config,
		stopChan:        make(chan struct{}, 1), // Buffered to prevent deadlock in Stop()
		currentInterval: config.PassInterval.Nanoseconds(),
		lastActivity:    now,
		lastShunt:       now,
	}, nil
}

// Start runs the loop in a goroutine until Stop is called or ctx ends.
func (l *Loop) Start(ctx context.Context) error {
	// Only start if not already running
	if atomic.CompareAndSwapInt64(&l.running, 0, 1) {
		l.wg.Add(1)
		go l.run(ctx)
	}
	return nil
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()
	timer := time.NewTimer(l.config.PassInterval)
	defer func() {
		timer.Stop()
		atomic.StoreInt64(&l.running, 0)
	}()

	// Shunt control runs once before the first pass.
	l.controlShunts(time.Now())

	for {
		select {
		case <-timer.C:
			l.Step()
			l.adjustInterval()
			timer.Reset(time.Duration(atomic.LoadInt64(&l.currentInterval)))
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Step runs one pass and reports whether it moved a frame.
func (l *Loop) Step() bool {
	start := time.Now()

	processed, err := l.node.ProcessNext()
	if processed {
		atomic.AddInt64(&l.framesProcessed, 1)
	}
	if err != nil {
		atomic.AddInt64(&l.processErrors, 1)
	}

	sent, err := l.node.SendNext(l.bus)
	if sent {
		atomic.AddInt64(&l.framesSent, 1)
	}
	if err != nil {
		atomic.AddInt64(&l.sendErrors, 1)
		eps.Logger().Warn().Err(err).Msg("transmit request failed")
	}

	if l.config.ShuntInterval > 0 &&
		start.Sub(time.Unix(0, atomic.LoadInt64(&l.lastShunt))) >= l.config.ShuntInterval {
		l.controlShunts(start)
	}

	atomic.AddInt64(&l.passes, 1)
	atomic.StoreInt64(&l.lastPassLatency, time.Since(start).Nanoseconds())
	active := processed || sent
	if active {
		atomic.StoreInt64(&l.lastActivity, start.UnixNano())
	}
	return active
}

func (l *Loop) controlShunts(now time.Time) {
	if l.config.ShuntInterval <= 0 {
		return
	}
	atomic.StoreInt64(&l.lastShunt, now.UnixNano())
	atomic.AddInt64(&l.shuntRuns, 1)
	if err := l.node.ControlShunts(); err != nil {
		atomic.AddInt64(&l.shuntErrors, 1)
		eps.Logger().Warn().Err(err).Msg("shunt control failed")
	}
}

// adjustInterval slows the loop down once the node has gone quiet.
func (l *Loop) adjustInterval() {
	quiet := time.Since(time.Unix(0, atomic.LoadInt64(&l.lastActivity)))
	interval := l.config.PassInterval
	if l.config.IdleAfter > 0 && quiet > l.config.IdleAfter {
		interval = l.config.idleInterval()
	}
	atomic.StoreInt64(&l.currentInterval, interval.Nanoseconds())
}

// Stop stops the loop and waits for its goroutine to exit
func (l *Loop) Stop(ctx context.Context) error {
	select {
	case l.stopChan <- struct{}{}:
	default:
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		// Drain a stop signal the goroutine never consumed.
		select {
		case <-l.stopChan:
		default:
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping main loop: %w", ctx.Err())
	}
}

// Running reports whether the loop goroutine is active.
func (l *Loop) Running() bool {
	return atomic.LoadInt64(&l.running) == 1
}

// GetMetrics returns current operational metrics
func (l *Loop) GetMetrics() Metrics {
	return Metrics{
		Passes:          atomic.LoadInt64(&l.passes),
		FramesProcessed: atomic.LoadInt64(&l.framesProcessed),
		ProcessErrors:   atomic.LoadInt64(&l.processErrors),
		FramesSent:      atomic.LoadInt64(&l.framesSent),
		SendErrors:      atomic.LoadInt64(&l.sendErrors),
		ShuntRuns:       atomic.LoadInt64(&l.shuntRuns),
		ShuntErrors:     atomic.LoadInt64(&l.shuntErrors),
		LastPassLatency: time.Duration(atomic.LoadInt64(&l.lastPassLatency)),
	}
}

// GetCurrentInterval returns the current adaptive pass interval
func (l *Loop) GetCurrentInterval() time.Duration {
	return time.Duration(atomic.LoadInt64(&l.currentInterval))
}
