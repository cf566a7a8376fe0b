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

package log

import (
	"fmt"
	"os"

	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level names accepted by the --log-level flag
const (
	ErrorLevelString   = "error"
	WarningLevelString = "warning"
	InfoLevelString    = "info"
	DebugLevelString   = "debug"
	TraceLevelString   = "trace"

	// DefaultLevelString is the level used when none is requested
	DefaultLevelString = InfoLevelString
)

// Log levels on the zap scale. Trace sits one step below zap's own debug.
const (
	ErrorLevel   = zapcore.ErrorLevel
	WarningLevel = zapcore.WarnLevel
	InfoLevel    = zapcore.InfoLevel
	DebugLevel   = zapcore.DebugLevel
	TraceLevel   = zapcore.DebugLevel - 1

	// DefaultLevel is the level used when none is requested
	DefaultLevel = InfoLevel
)

// Log stream formats accepted by the --log-format flag
const (
	TextFormatString = "text"
	JSONFormatString = "json"
)

// Flags contains the set of values necessary for configuring the logger
type Flags struct {
	logLevel       string
	logFormat      string
	logDestination string
}

// AddFlags binds the logging configuration flags to a given flagset
func (l *Flags) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&l.logLevel, "log-level", DefaultLevelString,
		"the desired log level, one of error, warning, info, debug and trace")
	flags.StringVar(&l.logFormat, "log-format", TextFormatString,
		"the format of the log stream, text or json")
	flags.StringVar(&l.logDestination, "log-destination", "",
		"where the log stream will be written, defaults to standard error")
}

// ConfigureLogging configures the logging subsystem honoring the flags
// passed from the user
func (l *Flags) ConfigureLogging() error {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(getLogLevelString(level))
	}

	var encoder zapcore.Encoder
	switch l.logFormat {
	case JSONFormatString:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case TextFormatString:
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return fmt.Errorf("unknown log format %q", l.logFormat)
	}

	sink := zapcore.AddSync(os.Stderr)
	if l.logDestination != "" {
		logStream, err := os.OpenFile(l.logDestination, os.O_RDWR|os.O_CREATE, 0o666) // #nosec
		if err != nil {
			return fmt.Errorf("cannot open log destination %q: %w", l.logDestination, err)
		}
		sink = zapcore.AddSync(logStream)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(getLogLevel(l.logLevel)))
	logger := zapr.NewLogger(zap.New(core))

	switch l.logLevel {
	case ErrorLevelString,
		WarningLevelString,
		InfoLevelString,
		DebugLevelString,
		TraceLevelString:
		break
	default:
		logger.Info("Invalid log level, defaulting", "level", l.logLevel, "default", DefaultLevelString)
	}

	SetLogger(logger)
	return nil
}

func getLogLevel(l string) zapcore.Level {
	switch l {
	case ErrorLevelString:
		return ErrorLevel
	case WarningLevelString:
		return WarningLevel
	case InfoLevelString:
		return InfoLevel
	case DebugLevelString:
		return DebugLevel
	case TraceLevelString:
		return TraceLevel
	default:
		return DefaultLevel
	}
}

func getLogLevelString(l zapcore.Level) string {
	switch l {
	case ErrorLevel:
		return ErrorLevelString
	case WarningLevel:
		return WarningLevelString
	case InfoLevel:
		return InfoLevelString
	case DebugLevel:
		return DebugLevelString
	case TraceLevel:
		return TraceLevelString
	default:
		return DefaultLevelString
	}
}
