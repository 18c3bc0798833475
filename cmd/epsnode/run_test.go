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

package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubesat-eps/go-eps"
	"github.com/cubesat-eps/go-eps/analogio"
	"github.com/cubesat-eps/go-eps/convert"
	"github.com/cubesat-eps/go-eps/polling"
)

// slowLink keeps logging for a while after cancellation, like a serial read
// loop waiting out its read timeout.
type slowLink struct {
	err    error
	fail   chan struct{}
	exited atomic.Bool
}

func (l *slowLink) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-l.fail:
		l.exited.Store(true)
		return l.err
	}
	time.Sleep(20 * time.Millisecond)
	eps.Logger().Debug().Msg("link read loop exiting")
	l.exited.Store(true)
	return nil
}

type nopBus struct{}

func (nopBus) ResumeTransmit(eps.MailboxID) error { return nil }

func newServeLoop(t *testing.T) *polling.Loop {
	t.Helper()
	board := analogio.NewSimBoard(convert.Default())
	setNominalInputs(board)
	node, err := eps.NewNode(eps.DefaultConfig(), board.Hardware())
	require.NoError(t, err)
	loop, err := polling.NewLoop(node, nopBus{}, nil)
	require.NoError(t, err)
	return loop
}

func TestServe_WaitsForLinkOnCancel(t *testing.T) {
	t.Parallel()
	loop := newServeLoop(t)
	link := &slowLink{fail: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	require.NoError(t, serve(ctx, loop, link))
	assert.True(t, link.exited.Load(), "link read loop still running after serve returned")
	assert.False(t, loop.Running())
}

func TestServe_LinkFailure(t *testing.T) {
	t.Parallel()
	loop := newServeLoop(t)
	errLink := errors.New("port unplugged")
	link := &slowLink{fail: make(chan struct{}), err: errLink}
	close(link.fail)

	err := serve(context.Background(), loop, link)
	require.ErrorIs(t, err, errLink)
	assert.True(t, link.exited.Load())
	assert.False(t, loop.Running())
}
