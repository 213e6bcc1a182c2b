// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opts holds the options of a single wrmsr invocation.
package opts

import (
	"system-transparency.org/wrmsr/msr"
)

// Loader fills particular fields of Opts depending on its source.
type Loader func(*Opts) error

// Opts controls the operation of wrmsr.
type Opts struct {
	// Register is the MSR address written on every target CPU.
	Register uint32
	// Values are written to Register in order.
	Values []uint64
	// Target is a single CPU or msr.AllCPUs.
	Target msr.Target
	// DevicePath is the MSR device template, see msr.DevOpener.
	DevicePath string
}

// NewOpts returns a new Opts initialized by the provided Loaders in order.
// Without loaders, Opts target CPU 0 through the default device path.
// Of several loaders selecting the target, the last one wins.
func NewOpts(loaders ...Loader) (*Opts, error) {
	opts := &Opts{
		Target:     0,
		DevicePath: msr.DefaultDevicePath,
	}

	for _, l := range loaders {
		if err := l(opts); err != nil {
			return nil, err
		}
	}

	return opts, nil
}

// WithRegister parses the register address.
func WithRegister(s string) Loader {
	return func(o *Opts) error {
		reg, err := parseUint(s, 32)
		if err != nil {
			return ErrInvalidRegister
		}

		o.Register = uint32(reg)

		return nil
	}
}

// WithValues parses the values to write. At least one is required.
func WithValues(ss []string) Loader {
	return func(o *Opts) error {
		if len(ss) == 0 {
			return ErrMissingValues
		}

		values := make([]uint64, 0, len(ss))

		for _, s := range ss {
			v, err := parseUint(s, 64)
			if err != nil {
				return ErrInvalidValue
			}

			values = append(values, v)
		}

		o.Values = values

		return nil
	}
}

// WithProcessor selects a single target CPU. An empty string keeps
// the current target.
func WithProcessor(s string) Loader {
	return func(o *Opts) error {
		if s == "" {
			return nil
		}

		cpu, err := parseUint(s, 64)
		if err != nil {
			return ErrInvalidProcessor
		}

		if cpu > msr.MaxCPU {
			return ErrProcessorRange
		}

		o.Target = msr.Target(cpu)

		return nil
	}
}

// WithAllCPUs selects all online CPUs when all is set and keeps
// the current target otherwise.
func WithAllCPUs(all bool) Loader {
	return func(o *Opts) error {
		if all {
			o.Target = msr.AllCPUs
		}

		return nil
	}
}

// WithDevicePath overrides the MSR device path template.
func WithDevicePath(path string) Loader {
	return func(o *Opts) error {
		if path == "" {
			return ErrEmptyDevicePath
		}

		o.DevicePath = path

		return nil
	}
}
