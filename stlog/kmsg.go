// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package stlog

import (
	"errors"
	"fmt"

	"github.com/u-root/u-root/pkg/ulog"
)

var errInitKlog = errors.New("init klog failed")

func newKernelLogger() (*logger, error) {
	klog := ulog.KernelLog
	klog.SetLogLevel(ulog.KLogNotice)

	if err := klog.SetConsoleLogLevel(ulog.KLogInfo); err != nil {
		return nil, fmt.Errorf("%w: %v", errInitKlog, err)
	}

	return &logger{
		out:    klog,
		level:  ErrorLevel,
		prefix: defaultPrefix,
	}, nil
}
