// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Severity is the severity attached to an audit message
type Severity string

// Audit severities
const (
	DEBUG   Severity = "DEBUG"
	INFO    Severity = "INFO"
	NOTICE  Severity = "NOTICE"
	WARNING Severity = "WARNING"
	ERROR   Severity = "ERROR"
	FATAL   Severity = "FATAL"
)

const appName = "bf-scene-catalog"

// LogContext carries the identity attached to every log line
type LogContext interface {
	AppName() string
	SessionID() string
	LogRootDir() string
}

// BasicLogContext is the default LogContext; its session ID is generated on first use
type BasicLogContext struct {
	sessionID string
	once      sync.Once
}

// AppName implements LogContext
func (ctx *BasicLogContext) AppName() string {
	return appName
}

// SessionID implements LogContext
func (ctx *BasicLogContext) SessionID() string {
	ctx.once.Do(func() {
		if ctx.sessionID == "" {
			ctx.sessionID = uuid.NewString()
		}
	})
	return ctx.sessionID
}

// LogRootDir implements LogContext
func (ctx *BasicLogContext) LogRootDir() string {
	return "scenecatalog"
}

// LogAuditInput is the set of fields recorded by LogAudit
type LogAuditInput struct {
	Actor    string
	Action   string
	Actee    string
	Message  string
	Severity Severity
}

var (
	loggerMu sync.RWMutex
	logger   = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv(LOG_LEVEL)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("app", appName).Logger()
}

// SetLogOutput redirects all log output; mostly useful in tests
func SetLogOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = newLogger(w)
}

func contextLogger(ctx LogContext) zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if ctx == nil {
		return logger
	}
	return logger.With().Str("session", ctx.SessionID()).Str("root", ctx.LogRootDir()).Logger()
}

// LogInfo writes an informational message
func LogInfo(ctx LogContext, message string) {
	l := contextLogger(ctx)
	l.Info().Msg(message)
}

// LogAlert writes a warning-level message
func LogAlert(ctx LogContext, message string) {
	l := contextLogger(ctx)
	l.Warn().Msg(message)
}

// LogSimpleErr logs an error with a leading message and returns the wrapped error
func LogSimpleErr(ctx LogContext, message string, err error) error {
	l := contextLogger(ctx)
	l.Error().Err(err).Msg(message)
	message = strings.TrimRight(message, ": ")
	if err == nil {
		return errors.New(message)
	}
	return errors.Wrap(err, message)
}

// LogAudit records who did what to whom
func LogAudit(ctx LogContext, input LogAuditInput) {
	l := contextLogger(ctx)
	var event *zerolog.Event
	switch input.Severity {
	case DEBUG:
		event = l.Debug()
	case WARNING, NOTICE:
		event = l.Warn()
	case ERROR, FATAL:
		event = l.Error()
	default:
		event = l.Info()
	}
	event.Str("actor", input.Actor).
		Str("action", input.Action).
		Str("actee", input.Actee).
		Str("severity", string(input.Severity)).
		Msg(input.Message)
}
