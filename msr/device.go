// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msr

import (
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	// DefaultDevicePath is the per-CPU device of the Linux msr driver.
	DefaultDevicePath = "/dev/cpu/%d/msr"
	// SelfDevicePath names the MSR device of whichever CPU the
	// calling thread runs on.
	SelfDevicePath = "/dev/cpu/self/msr"
)

// DevOpener opens MSR devices write-only through the file system.
// Path is formatted with the CPU index when it contains a %d verb,
// otherwise it is a fixed name used for every CPU.
type DevOpener struct {
	Path string
}

// DevicePath returns the device file used for cpu.
func (o DevOpener) DevicePath(cpu int) string {
	if strings.Contains(o.Path, "%d") {
		return fmt.Sprintf(o.Path, cpu)
	}

	return o.Path
}

// Open implements Opener.
func (o DevOpener) Open(cpu int) (Device, error) {
	path := o.DevicePath(cpu)

	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}

	return &device{fd: fd, path: path}, nil
}

type device struct {
	fd   int
	path string
}

func (d *device) WriteAt(b []byte, off int64) (int, error) {
	n, err := unix.Pwrite(d.fd, b, off)
	if err != nil {
		return 0, &fs.PathError{Op: "pwrite", Path: d.path, Err: err}
	}

	return n, nil
}

func (d *device) Close() error {
	if err := unix.Close(d.fd); err != nil {
		return &fs.PathError{Op: "close", Path: d.path, Err: err}
	}

	return nil
}
