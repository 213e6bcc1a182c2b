// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package host

import (
	"fmt"

	"system-transparency.org/wrmsr/sterror"
)

// BindCPU is not available on this platform.
func BindCPU(cpu int) error {
	return sterror.E(ErrScope, sterror.Op("bind"), fmt.Sprintf("CPU %d", cpu), ErrUnsupported)
}
