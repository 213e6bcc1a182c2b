// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"system-transparency.org/wrmsr/msr"
	"system-transparency.org/wrmsr/sterror"
)

type writeCall struct {
	device string
	reg    uint32
	target msr.Target
	values []uint64
}

type fakeWriter struct {
	device string
	calls  *[]writeCall
	err    error
}

func (f fakeWriter) Write(reg uint32, target msr.Target, values []uint64) error {
	*f.calls = append(*f.calls, writeCall{device: f.device, reg: reg, target: target, values: values})

	return f.err
}

func runFake(t *testing.T, writeErr error, args ...string) (int, []writeCall, string) {
	t.Helper()

	var (
		calls  []writeCall
		stderr bytes.Buffer
	)

	code := run(append([]string{"/usr/sbin/wrmsr"}, args...), &stderr, func(device string) msrWriter {
		return fakeWriter{device: device, calls: &calls, err: writeErr}
	})

	return code, calls, stderr.String()
}

func TestRunWrites(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
		want writeCall
	}{
		{
			name: "default CPU",
			args: []string{"0x174", "0x12345"},
			want: writeCall{msr.DefaultDevicePath, 0x174, 0, []uint64{0x12345}},
		},
		{
			name: "all CPUs",
			args: []string{"-a", "0x1a0", "0x0"},
			want: writeCall{msr.DefaultDevicePath, 0x1a0, msr.AllCPUs, []uint64{0}},
		},
		{
			name: "all CPUs long flag after arguments",
			args: []string{"0x1a0", "1", "--all"},
			want: writeCall{msr.DefaultDevicePath, 0x1a0, msr.AllCPUs, []uint64{1}},
		},
		{
			name: "all after processor",
			args: []string{"-p", "3", "-a", "0x1a0", "1"},
			want: writeCall{msr.DefaultDevicePath, 0x1a0, msr.AllCPUs, []uint64{1}},
		},
		{
			name: "processor after all",
			args: []string{"-a", "-p", "2", "0x10", "1"},
			want: writeCall{msr.DefaultDevicePath, 0x10, 2, []uint64{1}},
		},
		{
			name: "repeated processor",
			args: []string{"-p", "1", "-p", "2", "0x10", "1"},
			want: writeCall{msr.DefaultDevicePath, 0x10, 2, []uint64{1}},
		},
		{
			name: "cpu alias after processor",
			args: []string{"-p", "1", "0x10", "1", "--cpu=0x3"},
			want: writeCall{msr.DefaultDevicePath, 0x10, 3, []uint64{1}},
		},
		{
			name: "repeated all",
			args: []string{"-a", "--all", "0x10", "1"},
			want: writeCall{msr.DefaultDevicePath, 0x10, msr.AllCPUs, []uint64{1}},
		},
		{
			name: "hex processor and several values",
			args: []string{"-p", "0x10", "0x10", "1", "2", "3"},
			want: writeCall{msr.DefaultDevicePath, 0x10, 16, []uint64{1, 2, 3}},
		},
		{
			name: "octal processor long flag",
			args: []string{"--processor=017", "16", "0777"},
			want: writeCall{msr.DefaultDevicePath, 16, 15, []uint64{0o777}},
		},
		{
			name: "cpu alias",
			args: []string{"--cpu", "255", "0x1", "0x2"},
			want: writeCall{msr.DefaultDevicePath, 1, 255, []uint64{2}},
		},
		{
			name: "device override",
			args: []string{"--device", msr.SelfDevicePath, "1", "2"},
			want: writeCall{msr.SelfDevicePath, 1, 0, []uint64{2}},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, calls, stderr := runFake(t, nil, tt.args...)

			assert.Equal(t, exitOK, code)
			assert.Empty(t, stderr)
			require.Len(t, calls, 1)
			assert.Equal(t, tt.want, calls[0])
		})
	}
}

func TestRunUsageErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"register only", []string{"0x174"}},
		{"processor only", []string{"-p", "1"}},
		{"processor too large", []string{"-p", "256", "0x174", "1"}},
		{"processor not numeric", []string{"-p", "one", "0x174", "1"}},
		{"processor trailing garbage", []string{"-p", "1x", "0x174", "1"}},
		{"processor negative", []string{"--processor=-1", "0x174", "1"}},
		{"invalid processor before valid one", []string{"-p", "999", "-p", "2", "0x174", "1"}},
		{"register not numeric", []string{"msr", "1"}},
		{"register too large", []string{"0x100000000", "1"}},
		{"value not numeric", []string{"0x174", "1", "two"}},
		{"unknown flag", []string{"--bogus", "0x174", "1"}},
		{"unknown log level", []string{"--loglevel", "loud", "0x174", "1"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, calls, stderr := runFake(t, nil, tt.args...)

			assert.Equal(t, exitFailure, code)
			assert.Empty(t, calls)
			assert.Contains(t, stderr, "usage: wrmsr")
		})
	}
}

func TestRunHelpAndVersion(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
		want string
	}{
		{"short help", []string{"-h"}, "usage: wrmsr"},
		{"long help", []string{"--help"}, "usage: wrmsr"},
		{"help with invalid processor", []string{"-p", "999", "--help"}, "usage: wrmsr"},
		{"help with missing arguments", []string{"-a", "-h"}, "usage: wrmsr"},
		{"help with unknown flag", []string{"--bogus", "-h"}, "usage: wrmsr"},
		{"help in place of a processor", []string{"-p", "-h", "0x10", "1"}, "usage: wrmsr"},
		{"short version", []string{"-V"}, "wrmsr: version " + version},
		{"long version", []string{"--version", "0x174", "1"}, "wrmsr: version " + version},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, calls, stderr := runFake(t, nil, tt.args...)

			assert.Equal(t, exitOK, code)
			assert.Empty(t, calls)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRunWriteFailures(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		want int
	}{
		{"no CPU", sterror.E(msr.ErrScope, "CPU 9", msr.ErrNoCPU), exitNoCPU},
		{"no MSR support", sterror.E(msr.ErrScope, "CPU 0", msr.ErrNoMSR), exitNoMSR},
		{"rejected", sterror.E(msr.ErrScope, "CPU 0 cannot set MSR", msr.ErrRejected), exitRejected},
		{"permission denied", sterror.E(msr.ErrScope, errors.New("permission denied")), exitFailure},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, calls, stderr := runFake(t, tt.err, "-p", "9", "0x174", "1", "2")

			assert.Equal(t, tt.want, code)
			assert.Len(t, calls, 1)
			assert.True(t, strings.HasPrefix(stderr, "[ERROR] wrmsr: "), stderr)
			assert.Contains(t, stderr, tt.err.Error())
		})
	}
}

func TestRunDebugLogging(t *testing.T) {
	code, _, stderr := runFake(t, nil, "--loglevel", "d", "0x174", "1")

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "[DEBUG] wrmsr: register 0x00000174, CPU 0, 1 values")
}

func TestRunWithDevOpener(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0", "1", "2", "3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	var bound []int

	newWriter := func(device string) msrWriter {
		return msr.NewWriter(
			msr.DevOpener{Path: device},
			msr.BindFunc(func(cpu int) error {
				bound = append(bound, cpu)

				return nil
			}),
			func() (int, error) { return 4, nil },
		)
	}

	var stderr bytes.Buffer

	code := run([]string{"wrmsr", "--device", filepath.Join(dir, "%d"), "-a", "0x1a0", "0x12345"}, &stderr, newWriter)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2, 3, 3}, bound)

	for _, name := range []string{"0", "1", "2", "3"} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Len(t, got, 0x1a0+8)
		assert.Equal(t, uint64(0x12345), binary.LittleEndian.Uint64(got[0x1a0:]))
	}
}

func TestRunMissingCPU(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "0"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0", "msr"), nil, 0o600))

	newWriter := func(device string) msrWriter {
		return msr.NewWriter(
			msr.DevOpener{Path: device},
			msr.BindFunc(func(cpu int) error {
				if cpu != 0 {
					return unix.EINVAL
				}

				return nil
			}),
			func() (int, error) { return 1, nil },
		)
	}

	var stderr bytes.Buffer

	code := run([]string{"wrmsr", "--device", filepath.Join(dir, "%d", "msr"), "-p", "200", "0x10", "1"}, &stderr, newWriter)

	assert.Equal(t, exitNoCPU, code)
	assert.Equal(t, "[ERROR] wrmsr: bind: CPU 200: no such CPU\n", stderr.String())
}

func TestRunMissingDevice(t *testing.T) {
	var stderr bytes.Buffer

	newWriter := func(device string) msrWriter {
		return msr.NewWriter(msr.DevOpener{Path: device}, msr.BindFunc(func(int) error { return nil }), nil)
	}

	code := run([]string{"wrmsr", "--device", filepath.Join(t.TempDir(), "%d"), "0x174", "1"}, &stderr, newWriter)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "no such file or directory")
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, exitOK, exitCodeOf(nil))
	assert.Equal(t, exitNoCPU, exitCodeOf(msr.ErrNoCPU))
	assert.Equal(t, exitNoMSR, exitCodeOf(msr.ErrNoMSR))
	assert.Equal(t, exitRejected, exitCodeOf(msr.ErrRejected))
	assert.Equal(t, exitFailure, exitCodeOf(errors.New("boom")))
}
