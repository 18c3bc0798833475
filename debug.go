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
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// debugEnabled controls whether debug logging is active
var debugEnabled = false

var (
	consoleWriter io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger                  = zerolog.New(consoleWriter).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

func init() {
	// Enable debug logging if DEBUG environment variable is set
	if os.Getenv("EPS_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		SetDebugEnabled(true)
	}
}

// Logger returns the package logger. Every dropped frame and every state
// change of the housekeeping stream is reported through it.
func Logger() *zerolog.Logger {
	return &logger
}

// SetLogger replaces the package logger, e.g. with zerolog.Nop() in tests.
func SetLogger(l zerolog.Logger) {
	logger = l
	rebuildLevel()
}

// SetDebugEnabled allows programmatic control of debug logging
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
	rebuildLevel()
}

func rebuildLevel() {
	if debugEnabled {
		logger = logger.Level(zerolog.DebugLevel)
	} else if logger.GetLevel() < zerolog.InfoLevel {
		logger = logger.Level(zerolog.InfoLevel)
	}
}

// Debugf logs a formatted debug message. Arguments are only formatted when
// debug logging is on.
func Debugf(format string, args ...any) {
	if e := logger.Debug(); e.Enabled() {
		e.Msg(fmt.Sprintf(format, args...))
	}
}

// Debugln logs its arguments as a debug message, separated by spaces.
func Debugln(args ...any) {
	if e := logger.Debug(); e.Enabled() {
		e.Msg(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
	}
}
