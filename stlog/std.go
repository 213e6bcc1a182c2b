// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stlog

import (
	"fmt"
	"io"
	"log"
)

type printer interface {
	Print(v ...interface{})
}

type logger struct {
	out    printer
	level  LogLevel
	prefix string
}

func newStandardLogger(w io.Writer) *logger {
	return &logger{
		out:    log.New(w, "", 0),
		level:  ErrorLevel,
		prefix: defaultPrefix,
	}
}

func (l *logger) log(level LogLevel, tag, format string, v ...interface{}) {
	if l.level < level {
		return
	}

	l.out.Print(tag + l.prefix + ": " + fmt.Sprintf(format, v...))
}
