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
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Session log state
var (
	sessionLogFile *os.File
	sessionLogPath string
	consoleLogger  zerolog.Logger
)

// InitSessionLog creates a session log file in dir (the current directory
// when empty) and tees every log event into it at debug level regardless of
// the console level. Returns the log file path for display to the user.
func InitSessionLog(dir string) (string, error) {
	if sessionLogFile != nil {
		return sessionLogPath, nil
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("eps_%s.log", timestamp)
	if dir != "" {
		filename = filepath.Join(dir, filename)
	}

	logFile, err := os.Create(filename) //nolint:gosec // filename is constructed internally
	if err != nil {
		return "", fmt.Errorf("failed to create session log: %w", err)
	}

	writeSessionHeader(logFile)

	sessionLogFile = logFile
	sessionLogPath = filename
	consoleLogger = logger

	console := zerolog.MultiLevelWriter(levelFilter{consoleWriter, consoleLogger.GetLevel()}, logFile)
	logger = zerolog.New(console).With().Timestamp().Logger().Level(zerolog.DebugLevel)

	return filename, nil
}

// CloseSessionLog closes the current session log file and restores the
// console-only logger.
func CloseSessionLog() error {
	if sessionLogFile == nil {
		return nil
	}

	_, _ = fmt.Fprintf(sessionLogFile, "\n%s === Session ended ===\n", time.Now().Format("15:04:05.000"))

	err := sessionLogFile.Close()
	sessionLogFile = nil
	sessionLogPath = ""
	logger = consoleLogger
	if err != nil {
		return fmt.Errorf("failed to close session log: %w", err)
	}
	return nil
}

// GetSessionLogPath returns the current session log file path.
func GetSessionLogPath() string {
	return sessionLogPath
}

// writeSessionHeader writes metadata about the session to the log file.
func writeSessionHeader(writer io.Writer) {
	_, _ = fmt.Fprint(writer, "=== EPS Session Log ===\n")
	_, _ = fmt.Fprintf(writer, "Started: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(writer, "PID: %d\n", os.Getpid())
	_, _ = fmt.Fprintf(writer, "OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(writer, "Go Version: %s\n", runtime.Version())
	_, _ = fmt.Fprintf(writer, "Command Line: %s\n", strings.Join(os.Args, " "))
	_, _ = fmt.Fprint(writer, "=======================\n\n")
}

// levelFilter keeps the console at its configured level while the session
// file records everything.
type levelFilter struct {
	w     io.Writer
	level zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p) //nolint:wrapcheck // pass-through
}

func (f levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.level {
		return len(p), nil
	}
	return f.w.Write(p) //nolint:wrapcheck // pass-through
}
