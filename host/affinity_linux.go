// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"

	"golang.org/x/sys/unix"
	"system-transparency.org/wrmsr/sterror"
)

// BindCPU restricts the calling thread to the logical processor cpu.
// The binding applies to the OS thread, so callers need to hold it
// with runtime.LockOSThread for as long as they rely on it.
func BindCPU(cpu int) error {
	const operation = sterror.Op("bind")

	info := fmt.Sprintf("CPU %d", cpu)

	if cpu < 0 {
		return sterror.E(ErrScope, operation, info, unix.EINVAL)
	}

	var set unix.CPUSet

	set.Zero()
	set.Set(cpu)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return sterror.E(ErrScope, operation, info, err)
	}

	return nil
}
