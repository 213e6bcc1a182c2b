// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package msr writes model-specific registers through the per-CPU
// MSR device of the operating system.
package msr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sys/unix"
	"system-transparency.org/wrmsr/sterror"
	"system-transparency.org/wrmsr/stlog"
)

// Target selects the logical processors a write applies to.
// Non-negative values name a single CPU.
type Target int

// AllCPUs targets every online processor.
const AllCPUs Target = -1

// MaxCPU is the highest index accepted for a single target CPU.
const MaxCPU = 255

func (t Target) String() string {
	if t == AllCPUs {
		return "all CPUs"
	}

	return fmt.Sprintf("CPU %d", int(t))
}

// Device is an open MSR interface. Registers are addressed by
// the byte offset of positioned writes.
type Device interface {
	io.WriterAt
	io.Closer
}

// Opener opens the MSR device of a logical processor.
type Opener interface {
	Open(cpu int) (Device, error)
}

// Binder restricts the calling thread to a logical processor.
type Binder interface {
	Bind(cpu int) error
}

// BindFunc adapts an ordinary function to the Binder interface.
type BindFunc func(cpu int) error

// Bind calls f(cpu).
func (f BindFunc) Bind(cpu int) error {
	return f(cpu)
}

// Writer applies register values to one or all CPUs.
//
// Writing changes the CPU affinity of the calling thread. Write locks the
// calling goroutine to that thread and never unlocks it, so the pinned
// thread is not handed to other goroutines and exits together with the
// calling goroutine.
type Writer struct {
	opener Opener
	binder Binder
	online func() (int, error)
}

// NewWriter returns a Writer opening devices with opener, binding the
// calling thread with binder and resolving AllCPUs with online.
func NewWriter(opener Opener, binder Binder, online func() (int, error)) *Writer {
	return &Writer{
		opener: opener,
		binder: binder,
		online: online,
	}
}

// Write sets register reg to each of values in turn on the CPUs selected
// by target. CPUs are processed in ascending order and the first failure
// aborts the whole operation. The calling thread is bound to the target
// CPU before opening its device and again before every single write,
// and is left bound afterwards. The goroutine stays locked to its thread.
func (w *Writer) Write(reg uint32, target Target, values []uint64) error {
	runtime.LockOSThread()

	if target != AllCPUs {
		if target < 0 {
			return sterror.E(ErrScope, target.String(), ErrNoCPU)
		}

		return w.writeOnCPU(reg, int(target), values)
	}

	n, err := w.online()
	if err != nil {
		return sterror.E(ErrScope, err)
	}

	stlog.Debug("writing MSR 0x%08x on %d online CPUs", reg, n)

	for cpu := 0; cpu < n; cpu++ {
		if err := w.writeOnCPU(reg, cpu, values); err != nil {
			return err
		}
	}

	return nil
}

func (w *Writer) writeOnCPU(reg uint32, cpu int, values []uint64) error {
	// A missing CPU shows up as EINVAL here, while opening its device
	// only reports a missing file.
	if err := w.binder.Bind(cpu); err != nil {
		return bindError(cpu, err)
	}

	dev, err := w.opener.Open(cpu)
	if err != nil {
		return openError(cpu, err)
	}

	defer func() {
		if err := dev.Close(); err != nil {
			stlog.Warn("CPU %d: closing MSR device: %v", cpu, err)
		}
	}()

	var buf [8]byte

	for _, val := range values {
		if err := w.binder.Bind(cpu); err != nil {
			return bindError(cpu, err)
		}

		binary.LittleEndian.PutUint64(buf[:], val)

		n, err := dev.WriteAt(buf[:], int64(reg))
		if n != len(buf) {
			return writeError(cpu, reg, val, err)
		}

		stlog.Debug("CPU %d: MSR 0x%08x <- 0x%016x", cpu, reg, val)
	}

	return nil
}

func openError(cpu int, err error) error {
	info := fmt.Sprintf("CPU %d", cpu)

	switch {
	case errors.Is(err, unix.ENXIO):
		return sterror.E(ErrScope, info, ErrNoCPU)
	case errors.Is(err, unix.EIO):
		return sterror.E(ErrScope, info, ErrNoMSR)
	default:
		return sterror.E(ErrScope, info, err)
	}
}

func bindError(cpu int, err error) error {
	if errors.Is(err, unix.EINVAL) {
		return sterror.E(ErrScope, sterror.Op("bind"), fmt.Sprintf("CPU %d", cpu), ErrNoCPU)
	}

	return sterror.E(ErrScope, err)
}

func writeError(cpu int, reg uint32, val uint64, err error) error {
	if errors.Is(err, unix.EIO) {
		info := fmt.Sprintf("CPU %d cannot set MSR 0x%08x to 0x%016x", cpu, reg, val)

		return sterror.E(ErrScope, info, ErrRejected)
	}

	if err == nil {
		err = io.ErrShortWrite
	}

	return sterror.E(ErrScope, sterror.Op("pwrite"), fmt.Sprintf("CPU %d MSR 0x%08x", cpu, reg), err)
}
