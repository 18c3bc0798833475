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

package queue

import (
	"sync"
	"testing"

	"github.com/cubesat-eps/go-eps/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hk(field uint8) frame.Frame {
	return frame.New(frame.MsgEPSHousekeeping, field, uint32(field)*3)
}

func TestNew_Capacity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 8, New(8).Cap())
	assert.Equal(t, 3, New(3).Cap())
	assert.Equal(t, DefaultCapacity, New(0).Cap())
	assert.Equal(t, DefaultCapacity, New(-4).Cap())
}

func TestQueue_FIFO(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 8; n++ {
		q := New(8)
		for i := range n {
			require.NoError(t, q.Enqueue(hk(uint8(i))))
		}
		for i := range n {
			f, ok := q.Dequeue()
			require.True(t, ok)
			assert.Equal(t, hk(uint8(i)), f, "n=%d i=%d", n, i)
		}
		assert.True(t, q.IsEmpty())
	}
}

func TestQueue_FIFOAcrossWrap(t *testing.T) {
	t.Parallel()

	q := New(4)
	next := uint8(0)
	want := uint8(0)
	// Interleave so head walks around the ring several times.
	for range 10 {
		for range 3 {
			require.NoError(t, q.Enqueue(hk(next)))
			next++
		}
		for range 3 {
			f, ok := q.Dequeue()
			require.True(t, ok)
			assert.Equal(t, want, f.Field())
			want++
		}
	}
}

func TestQueue_FullRejectsAndPreservesContents(t *testing.T) {
	t.Parallel()

	q := New(8)
	for i := range 8 {
		require.NoError(t, q.Enqueue(hk(uint8(i))))
	}
	require.True(t, q.IsFull())

	err := q.Enqueue(hk(99))
	require.ErrorIs(t, err, ErrFull)
	assert.Equal(t, 8, q.Len())

	for i := range 8 {
		f, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, hk(uint8(i)), f)
	}
}

func TestQueue_EmptyResults(t *testing.T) {
	t.Parallel()

	q := New(2)
	assert.True(t, q.IsEmpty())

	_, ok := q.Dequeue()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PeekDoesNotRemove(t *testing.T) {
	t.Parallel()

	q := New(2)
	require.NoError(t, q.Enqueue(hk(1)))
	require.NoError(t, q.Enqueue(hk(2)))

	f, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint8(1), f.Field())
	assert.Equal(t, 2, q.Len())

	f, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, uint8(1), f.Field())
}

func TestQueue_Reset(t *testing.T) {
	t.Parallel()

	q := New(3)
	for i := range 3 {
		require.NoError(t, q.Enqueue(hk(uint8(i))))
	}
	q.Reset()

	assert.True(t, q.IsEmpty())
	require.NoError(t, q.Enqueue(hk(7)))
	f, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, uint8(7), f.Field())
}

// One producer (interrupt side) and one consumer (main loop) hammering the
// same queue must never lose, duplicate or reorder accepted frames.
func TestQueue_ConcurrentProducerConsumer(t *testing.T) {
	t.Parallel()

	const total = 5000
	q := New(8)

	var (
		wg       sync.WaitGroup
		accepted []uint32
		received []uint32
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range total {
			f := frame.New(frame.MsgEPSHousekeeping, 0, uint32(i))
			if q.Enqueue(f) == nil {
				accepted = append(accepted, f.Value())
			}
		}
	}()
	go func() {
		defer wg.Done()
		for range total * 4 {
			if f, ok := q.Dequeue(); ok {
				received = append(received, f.Value())
			}
		}
	}()
	wg.Wait()

	for {
		f, ok := q.Dequeue()
		if !ok {
			break
		}
		received = append(received, f.Value())
	}

	assert.Equal(t, accepted, received)
	assert.NotEmpty(t, accepted)
}
