// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package stlog

import (
	"errors"
	"runtime"
)

func newKernelLogger() (*logger, error) {
	return nil, errors.New("kernel log not available on " + runtime.GOOS)
}
