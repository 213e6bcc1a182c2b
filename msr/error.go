// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msr

import "system-transparency.org/wrmsr/sterror"

// ErrScope marks errors originating from MSR access.
const ErrScope = sterror.MSR

// Error is a class of MSR access failure. Callers match it with
// errors.Is to decide how to report the failure.
type Error string

// Error implements error interface.
func (e Error) Error() string {
	return string(e)
}

const (
	// ErrNoCPU means the target processor does not exist or is offline.
	ErrNoCPU = Error("no such CPU")
	// ErrNoMSR means the processor has no MSR support.
	ErrNoMSR = Error("MSRs not supported")
	// ErrRejected means the processor refused the value for the register.
	ErrRejected = Error("MSR write rejected")
)
