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

// Package queue implements the fixed-capacity frame queue shared between
// interrupt-level mailbox handlers and the main loop.
package queue

import (
	"errors"

	"github.com/cubesat-eps/go-eps/frame"
	"github.com/cubesat-eps/go-eps/internal/syncutil"
)

// DefaultCapacity is the queue depth used for both directions on the node.
const DefaultCapacity = 8

// ErrFull is returned by Enqueue when the queue already holds Cap() frames.
// The rejected frame is discarded.
var ErrFull = errors.New("queue full")

// Queue is a bounded FIFO ring of frames. Every operation runs inside one
// critical section and completes in constant time; nothing ever blocks
// waiting for space or data.
type Queue struct {
	buf   []frame.Frame
	head  int // index of the oldest frame
	count int
	mu    syncutil.Mutex
}

// New creates an empty queue holding at most capacity frames. A capacity
// below 1 falls back to DefaultCapacity.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{buf: make([]frame.Frame, capacity)}
}

// Enqueue appends f at the tail. On a full queue it returns ErrFull and
// leaves the queued frames untouched.
func (q *Queue) Enqueue(f frame.Frame) error {
	var err error
	q.mu.Critical(func() {
		if q.count == len(q.buf) {
			err = ErrFull
			return
		}
		q.buf[(q.head+q.count)%len(q.buf)] = f
		q.count++
	})
	return err
}

// Dequeue removes and returns the head frame. ok is false when the queue is
// empty, which is a normal condition rather than an error.
func (q *Queue) Dequeue() (f frame.Frame, ok bool) {
	q.mu.Critical(func() {
		if q.count == 0 {
			return
		}
		f, ok = q.buf[q.head], true
		q.buf[q.head] = frame.Frame{}
		q.head = (q.head + 1) % len(q.buf)
		q.count--
	})
	return f, ok
}

// Peek returns the head frame without removing it.
func (q *Queue) Peek() (f frame.Frame, ok bool) {
	q.mu.Critical(func() {
		if q.count == 0 {
			return
		}
		f, ok = q.buf[q.head], true
	})
	return f, ok
}

// IsEmpty reports whether the queue holds no frames.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// IsFull reports whether the next Enqueue would fail.
func (q *Queue) IsFull() bool {
	return q.Len() == q.Cap()
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	var n int
	q.mu.Critical(func() { n = q.count })
	return n
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Reset empties the queue. Only called while the node initializes.
func (q *Queue) Reset() {
	q.mu.Critical(func() {
		clear(q.buf)
		q.head = 0
		q.count = 0
	})
}
