// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log is a minimal go-kratos-style leveled logger: a Logger
// interface taking alternating key/value pairs, a std-out backend, a level
// filter, and a Helper with printf-style convenience methods. It exists so
// this module does not import a heavyweight logging framework just to print
// the occasional diagnostic during parsing.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Level is a log severity.
type Level int8

// The four severities a Logger call can carry.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal sink every backend and filter implements.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

// stdLogger writes "timestamp LEVEL key=val key=val" lines to an io.Writer.
type stdLogger struct {
	log *log.Logger
}

// NewStdLogger returns a Logger that writes to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{log: log.New(w, "", 0)}
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}
	buf := fmt.Sprintf("%s %s", time.Now().Format(time.RFC3339), level.String())
	for i := 0; i < len(keyvals); i += 2 {
		buf += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	l.log.Println(buf)
	return nil
}

// filter wraps a Logger and drops any record below its configured level.
type filter struct {
	logger Logger
	level  Level
}

// FilterOption configures a filter.
type FilterOption func(*filter)

// FilterLevel sets the minimum level a record must carry to pass through.
func FilterLevel(level Level) FilterOption {
	return func(f *filter) {
		f.level = level
	}
}

// NewFilter returns a Logger that only forwards records at or above its
// configured level to logger.
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &filter{logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filter) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	return f.logger.Log(level, keyvals...)
}

// Helper adds printf-style convenience methods on top of a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger with printf-style methods.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, format string, args ...interface{}) {
	_ = h.logger.Log(level, "msg", fmt.Sprintf(format, args...))
}

// Debugf logs a DEBUG record.
func (h *Helper) Debugf(format string, args ...interface{}) { h.log(LevelDebug, format, args...) }

// Infof logs an INFO record.
func (h *Helper) Infof(format string, args ...interface{}) { h.log(LevelInfo, format, args...) }

// Warnf logs a WARN record.
func (h *Helper) Warnf(format string, args ...interface{}) { h.log(LevelWarn, format, args...) }

// Errorf logs an ERROR record.
func (h *Helper) Errorf(format string, args ...interface{}) { h.log(LevelError, format, args...) }

// Debug logs a DEBUG record without formatting.
func (h *Helper) Debug(args ...interface{}) {
	_ = h.logger.Log(LevelDebug, "msg", fmt.Sprint(args...))
}

// Info logs an INFO record without formatting.
func (h *Helper) Info(args ...interface{}) {
	_ = h.logger.Log(LevelInfo, "msg", fmt.Sprint(args...))
}

// Warn logs a WARN record without formatting.
func (h *Helper) Warn(args ...interface{}) {
	_ = h.logger.Log(LevelWarn, "msg", fmt.Sprint(args...))
}

// Error logs an ERROR record without formatting.
func (h *Helper) Error(args ...interface{}) {
	_ = h.logger.Log(LevelError, "msg", fmt.Sprint(args...))
}

// DefaultLogger is a ready-to-use Logger writing to stderr at WARN+.
var DefaultLogger Logger = NewFilter(NewStdLogger(os.Stderr), FilterLevel(LevelWarn))
