/*
Copyright The Flotilla Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package log contains the logging subsystem of flotilla
package log

import (
	"context"

	"github.com/go-logr/logr"
)

// Logger is the logging interface used by the flotilla packages. The
// concrete implementation wraps a logr.Logger, so verbosity follows the
// logr conventions: Debug and Trace are progressively more verbose
// variants of Info.
type Logger interface {
	Enabled() bool
	Error(err error, msg string, keysAndValues ...interface{})
	Warning(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Trace(msg string, keysAndValues ...interface{})

	WithValues(keysAndValues ...interface{}) Logger
	WithName(name string) Logger

	GetLogger() logr.Logger
}

// logr verbosities backing each level. The zapr adapter maps V(n) onto
// the negated zap level, keeping debug and trace below zap's info level.
const (
	infoVerbosity  = 0
	debugVerbosity = 1
	traceVerbosity = 2
)

type logger struct {
	logr.Logger
}

var defaultLogger = &logger{Logger: logr.Discard()}

// SetLogger replaces the logr implementation backing the package-level
// logging functions
func SetLogger(l logr.Logger) {
	defaultLogger.Logger = l
}

// GetLogger returns the logr implementation backing the package-level
// logging functions
func GetLogger() logr.Logger {
	return defaultLogger.Logger
}

func (l *logger) Enabled() bool {
	return l.Logger.Enabled()
}

func (l *logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(err, msg, keysAndValues...)
}

func (l *logger) Warning(msg string, keysAndValues ...interface{}) {
	kv := make([]interface{}, 0, len(keysAndValues)+2)
	kv = append(kv, keysAndValues...)
	kv = append(kv, "severity", WarningLevelString)
	l.Logger.V(infoVerbosity).Info(msg, kv...)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.V(infoVerbosity).Info(msg, keysAndValues...)
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.V(debugVerbosity).Info(msg, keysAndValues...)
}

func (l *logger) Trace(msg string, keysAndValues ...interface{}) {
	l.Logger.V(traceVerbosity).Info(msg, keysAndValues...)
}

func (l *logger) WithValues(keysAndValues ...interface{}) Logger {
	return &logger{Logger: l.Logger.WithValues(keysAndValues...)}
}

func (l *logger) WithName(name string) Logger {
	return &logger{Logger: l.Logger.WithName(name)}
}

func (l *logger) GetLogger() logr.Logger {
	return l.Logger
}

// Enabled exposes the corresponding method of the package-level logger
func Enabled() bool {
	return defaultLogger.Enabled()
}

// Error exposes the corresponding method of the package-level logger
func Error(err error, msg string, keysAndValues ...interface{}) {
	defaultLogger.Error(err, msg, keysAndValues...)
}

// Warning exposes the corresponding method of the package-level logger
func Warning(msg string, keysAndValues ...interface{}) {
	defaultLogger.Warning(msg, keysAndValues...)
}

// Info exposes the corresponding method of the package-level logger
func Info(msg string, keysAndValues ...interface{}) {
	defaultLogger.Info(msg, keysAndValues...)
}

// Debug exposes the corresponding method of the package-level logger
func Debug(msg string, keysAndValues ...interface{}) {
	defaultLogger.Debug(msg, keysAndValues...)
}

// Trace exposes the corresponding method of the package-level logger
func Trace(msg string, keysAndValues ...interface{}) {
	defaultLogger.Trace(msg, keysAndValues...)
}

// WithValues returns a copy of the package-level logger carrying extra
// key/value pairs
func WithValues(keysAndValues ...interface{}) Logger {
	return defaultLogger.WithValues(keysAndValues...)
}

// WithName returns a copy of the package-level logger with a name segment
// appended
func WithName(name string) Logger {
	return defaultLogger.WithName(name)
}

// FromContext returns the logger stored inside the context, falling back
// to the package-level one
func FromContext(ctx context.Context) Logger {
	if l, err := logr.FromContext(ctx); err == nil {
		return &logger{Logger: l}
	}

	return defaultLogger
}

// IntoContext stores a logger inside a context
func IntoContext(ctx context.Context, l Logger) context.Context {
	return logr.NewContext(ctx, l.GetLogger())
}
