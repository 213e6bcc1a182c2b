// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host exposes functionality to interact with the host machine's
// processors.
package host

import (
	"github.com/tklauser/go-sysconf"
	"system-transparency.org/wrmsr/sterror"
)

// OnlineCPUs returns the number of logical processors currently online.
func OnlineCPUs() (int, error) {
	const operation = sterror.Op("count online CPUs")

	n, err := sysconf.Sysconf(sysconf.SC_NPROCESSORS_ONLN)
	if err != nil {
		return 0, sterror.E(ErrScope, operation, err)
	}

	return int(n), nil
}
