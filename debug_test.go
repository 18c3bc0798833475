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

package eps

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/cubesat-eps/go-eps/convert"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger swaps the package logger for one writing to a buffer. Tests
// using it must not run in parallel.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	origLogger, origEnabled := logger, debugEnabled
	t.Cleanup(func() {
		logger, debugEnabled = origLogger, origEnabled
	})

	var buf bytes.Buffer
	debugEnabled = false
	SetLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))
	return &buf
}

func TestDebugf_HiddenUntilEnabled(t *testing.T) {
	buf := captureLogger(t)

	Debugf("test message %d", 42)
	assert.Empty(t, buf.String())

	SetDebugEnabled(true)
	Debugf("test message %d", 42)
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), "test message 42")
}

func TestDebugln_JoinsArguments(t *testing.T) {
	buf := captureLogger(t)
	SetDebugEnabled(true)

	Debugln("value", 7)

	assert.Contains(t, buf.String(), "value 7")
}

func TestDebugf_MonitorTraffic(t *testing.T) {
	buf := captureLogger(t)
	d, _, _ := newTestDispatcher(t, 4)

	require.NoError(t, d.Receive(MailboxStatusRX, []byte{1, 2}))
	assert.Empty(t, buf.String(), "nothing below debug level")

	SetDebugEnabled(true)
	require.NoError(t, d.Receive(MailboxStatusRX, []byte{0xAB, 0xCD}))
	assert.Contains(t, buf.String(), "mailbox 0: len=2 data=[AB CD]")
}

func TestDebugln_StreamTransitions(t *testing.T) {
	buf := captureLogger(t)
	SetDebugEnabled(true)
	fx := newStreamFixture(4, true)

	require.NoError(t, fx.streamer.Handle(hkRequest(5)))
	require.NoError(t, fx.streamer.Handle(hkRequest(0)))
	require.ErrorIs(t, fx.streamer.Handle(hkRequest(0xFF)), ErrUnknownField)

	assert.Contains(t, buf.String(), "housekeeping sequence restarted at")
	assert.Contains(t, buf.String(), "housekeeping stream idle after")
}

func TestHeaterSetpointLoggedAsTemperature(t *testing.T) {
	buf := captureLogger(t)
	SetDebugEnabled(true)
	c := NewHeaterController(convert.Default(), &fakeDAC{}, nil)

	require.NoError(t, c.Off())

	assert.Contains(t, buf.String(), `"heater":"heater1"`)
	assert.Contains(t, buf.String(), "°C")
}

func TestSetDebugEnabled_RestoresInfoLevel(t *testing.T) {
	captureLogger(t)

	SetDebugEnabled(true)
	assert.Equal(t, zerolog.DebugLevel, Logger().GetLevel())

	SetDebugEnabled(false)
	assert.Equal(t, zerolog.InfoLevel, Logger().GetLevel())
}

func TestInitSessionLog_CreatesFileWithHeader(t *testing.T) {
	captureLogger(t)
	dir := t.TempDir()
	t.Cleanup(func() { _ = CloseSessionLog() })

	path, err := InitSessionLog(dir)
	require.NoError(t, err)
	assert.Equal(t, path, GetSessionLogPath())

	matched, err := regexp.MatchString(`^eps_\d{8}_\d{6}\.log$`, filepath.Base(path))
	require.NoError(t, err)
	assert.True(t, matched, "unexpected session log name %s", path)

	again, err := InitSessionLog(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again, "second init reuses the open session")

	Debugf("recorded at debug level")
	require.NoError(t, CloseSessionLog())
	assert.Empty(t, GetSessionLogPath())

	content, err := os.ReadFile(path) //nolint:gosec // path is from InitSessionLog
	require.NoError(t, err)
	assert.Contains(t, string(content), "=== EPS Session Log ===")
	assert.Contains(t, string(content), "PID:")
	assert.Contains(t, string(content), "recorded at debug level")
	assert.Contains(t, string(content), "=== Session ended ===")
}

func TestCloseSessionLog_NoSession(t *testing.T) {
	require.NoError(t, CloseSessionLog())
}
