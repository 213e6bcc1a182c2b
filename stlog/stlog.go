// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stlog exposes leveled logging capabilities.
//
// stlog wraps two loggers and adds log levels to them:
// There is a standard "log" package logger writing to stderr
// and another one using the kernel log buffer.
package stlog

import (
	"io"
	"os"
	"sync"
)

const (
	defaultPrefix string = "wrmsr"
	errorTag      string = "[ERROR] "
	warnTag       string = "[WARN]  "
	infoTag       string = "[INFO]  "
	debugTag      string = "[DEBUG] "
)

type LogLevel int

const (
	ErrorLevel LogLevel = iota
	WarnLevel
	InfoLevel
	DebugLevel
)

type LogOutput int

const (
	StdError LogOutput = iota
	KernelSyslog
)

var (
	mu  sync.Mutex
	stl = newStandardLogger(os.Stderr)
)

// SetOutput sets the packages underlying logger. Level and prefix
// of the previous logger are carried over.
func SetOutput(o LogOutput) error {
	mu.Lock()
	defer mu.Unlock()

	var next *logger

	switch o {
	case KernelSyslog:
		kl, err := newKernelLogger()
		if err != nil {
			return err
		}

		next = kl
	default:
		next = newStandardLogger(os.Stderr)
	}

	next.level = stl.level
	next.prefix = stl.prefix
	stl = next

	return nil
}

// SetWriter directs the standard logger to w.
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	next := newStandardLogger(w)
	next.level = stl.level
	next.prefix = stl.prefix
	stl = next
}

// SetLevel sets the logging level of stlog package.
// Unknown levels are treated as DebugLevel.
func SetLevel(l LogLevel) {
	mu.Lock()
	defer mu.Unlock()

	switch l {
	case ErrorLevel, WarnLevel, InfoLevel, DebugLevel:
		stl.level = l
	default:
		stl.level = DebugLevel
	}
}

// Level returns the current logging level.
func Level() LogLevel {
	mu.Lock()
	defer mu.Unlock()

	return stl.level
}

// SetPrefix sets the name every message is prefixed with,
// usually the program name.
func SetPrefix(p string) {
	mu.Lock()
	defer mu.Unlock()

	stl.prefix = p
}

func current() *logger {
	mu.Lock()
	defer mu.Unlock()

	return stl
}

// Error prints error messages to the currently active logger when permitted
// by the log level. Input can be formatted according to fmt.Printf.
func Error(format string, v ...interface{}) {
	current().log(ErrorLevel, errorTag, format, v...)
}

// Warn prints warning messages to the currently active logger when permitted
// by the log level. Input can be formatted according to fmt.Printf.
func Warn(format string, v ...interface{}) {
	current().log(WarnLevel, warnTag, format, v...)
}

// Info prints info messages to the currently active logger when permitted
// by the log level. Input can be formatted according to fmt.Printf.
func Info(format string, v ...interface{}) {
	current().log(InfoLevel, infoTag, format, v...)
}

// Debug prints debug messages to the currently active logger when permitted
// by the log level. Input can be formatted according to fmt.Printf.
func Debug(format string, v ...interface{}) {
	current().log(DebugLevel, debugTag, format, v...)
}
