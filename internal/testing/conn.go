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

// Package testing provides in-memory serial connections for link tests.
package testing

import (
	"io"
	"math/rand/v2"
	"sync"
	"time"
)

// Port is an in-memory serial port. Bytes written with Inject are returned
// by Read; bytes written by the code under test are collected for Written.
// Read waits at most ReadTimeout and then returns (0, nil), like a serial
// port with a read timeout.
type Port struct {
	ReadTimeout time.Duration
	cond        *sync.Cond
	rx          []byte
	tx          []byte
	mu          sync.Mutex
	closed      bool
}

// NewPort creates an open port.
func NewPort() *Port {
	p := &Port{ReadTimeout: 5 * time.Millisecond}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Inject queues bytes for Read.
func (p *Port) Inject(data []byte) {
	p.mu.Lock()
	p.rx = append(p.rx, data...)
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Read implements io.Reader.
func (p *Port) Read(buf []byte) (int, error) {
	deadline := time.Now().Add(p.ReadTimeout)
	timer := time.AfterFunc(p.ReadTimeout, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.cond.Broadcast()
	})
	defer timer.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.rx) == 0 && !p.closed && time.Now().Before(deadline) {
		p.cond.Wait()
	}
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	n := copy(buf, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

// Write implements io.Writer.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.tx = append(p.tx, data...)
	return len(data), nil
}

// Close implements io.Closer.
func (p *Port) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	return nil
}

// Written returns everything written so far.
func (p *Port) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.tx...)
}

// FragmentConfig configures FragmentingConn.
type FragmentConfig struct {
	MaxLatency time.Duration
	MinBytes   int
	Seed       uint64
}

// FragmentingConn wraps a connection so reads return random slices of the
// available data after random delays, the way USB-UART bridges deliver it.
type FragmentingConn struct {
	backend io.ReadWriteCloser
	rng     *rand.Rand
	readBuf []byte
	config  FragmentConfig
}

// NewFragmentingConn wraps backend.
func NewFragmentingConn(backend io.ReadWriteCloser, config FragmentConfig) *FragmentingConn {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec // Test code, not crypto
	}
	if config.MinBytes < 1 {
		config.MinBytes = 1
	}
	return &FragmentingConn{
		backend: backend,
		config:  config,
		rng:     rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)), //nolint:gosec // Test code, not crypto
		readBuf: make([]byte, 0, 256),
	}
}

// Read returns between MinBytes and all buffered bytes.
func (f *FragmentingConn) Read(buf []byte) (int, error) {
	if f.config.MaxLatency > 0 {
		time.Sleep(time.Duration(f.rng.Int64N(int64(f.config.MaxLatency) + 1)))
	}

	if len(f.readBuf) == 0 {
		tmp := make([]byte, 256)
		n, err := f.backend.Read(tmp)
		if err != nil || n == 0 {
			return 0, err //nolint:wrapcheck // Pass-through wrapper
		}
		f.readBuf = append(f.readBuf, tmp[:n]...)
	}

	toReturn := min(len(f.readBuf), len(buf))
	if toReturn > f.config.MinBytes {
		toReturn = f.config.MinBytes + f.rng.IntN(toReturn-f.config.MinBytes+1)
	}
	copy(buf, f.readBuf[:toReturn])
	f.readBuf = f.readBuf[toReturn:]
	return toReturn, nil
}

// Write passes writes through unchanged.
func (f *FragmentingConn) Write(data []byte) (int, error) {
	return f.backend.Write(data) //nolint:wrapcheck // Pass-through wrapper
}

// Close closes the backend.
func (f *FragmentingConn) Close() error {
	return f.backend.Close() //nolint:wrapcheck // Pass-through wrapper
}
