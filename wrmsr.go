// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

// wrmsr writes values to a model-specific register of one or all
// logical processors through the MSR device of the kernel.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/alecthomas/kingpin.v2"
	"system-transparency.org/wrmsr/host"
	"system-transparency.org/wrmsr/msr"
	"system-transparency.org/wrmsr/opts"
	"system-transparency.org/wrmsr/stlog"
)

const (
	HelpText      = "Write a value to a model-specific register"
	logLevelHelp  = "Log level: e 'error', w 'warn', i 'info', d 'debug'"
	allHelp       = "All processors"
	processorHelp = "Select processor number (default 0)"
	kmsgHelp      = "Log to the kernel log instead of stderr"
	deviceHelp    = "MSR device, %d is replaced by the processor number"
)

// Exit codes.
const (
	exitOK       = 0
	exitNoCPU    = 2
	exitNoMSR    = 3
	exitRejected = 4
	exitFailure  = 127
)

var version = "dev"

// msrWriter is implemented by *msr.Writer.
type msrWriter interface {
	Write(reg uint32, target msr.Target, values []uint64) error
}

// writerFactory builds the writer for a device path template.
type writerFactory func(devicePath string) msrWriter

func hostWriter(devicePath string) msrWriter {
	return msr.NewWriter(
		msr.DevOpener{Path: devicePath},
		msr.BindFunc(host.BindCPU),
		host.OnlineCPUs,
	)
}

func main() {
	os.Exit(run(os.Args, os.Stderr, hostWriter))
}

// run executes one invocation and returns the process exit code.
// args[0] is the program name.
func run(args []string, stderr io.Writer, newWriter writerFactory) int {
	program := "wrmsr"

	if len(args) > 0 {
		if args[0] != "" {
			program = filepath.Base(args[0])
		}

		args = args[1:]
	}

	var (
		terminated bool
		exitCode   int
	)

	app := kingpin.New(program, HelpText)
	app.UsageTemplate(kingpin.CompactUsageTemplate)
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Version(fmt.Sprintf("%s: version %s", program, version))
	app.HelpFlag.Short('h')
	app.VersionFlag.Short('V')
	app.Terminate(func(code int) {
		if !terminated {
			terminated, exitCode = true, code
		}
	})

	var target targetLoaders

	app.Flag("all", allHelp).Short('a').SetValue(allValue{&target})
	app.Flag("processor", processorHelp).Short('p').PlaceHolder("N").SetValue(processorValue{&target})
	app.Flag("cpu", processorHelp).Hidden().PlaceHolder("N").SetValue(processorValue{&target})
	logLevel := app.Flag("loglevel", logLevelHelp).Default("error").
		Enum("e", "error", "w", "warn", "i", "info", "d", "debug")
	kmsg := app.Flag("kmsg", kmsgHelp).Bool()
	device := app.Flag("device", deviceHelp).Hidden().Default(msr.DefaultDevicePath).String()
	register := app.Arg("register", "MSR address").Required().String()
	values := app.Arg("value", "Values to write, in order").Required().Strings()

	usage := func() int {
		app.Usage(nil)

		return exitFailure
	}

	// Help and version win over everything else on the command line,
	// even where getopt would have consumed "-h" as the value of -p.
	switch infoRequest(args) {
	case "help":
		app.Usage(nil)

		return exitOK
	case "version":
		fmt.Fprintf(stderr, "%s: version %s\n", program, version)

		return exitOK
	}

	_, err := app.Parse(args)

	if terminated {
		return exitCode
	}

	if err != nil {
		return usage()
	}

	if err := setupLogging(program, *logLevel, *kmsg, stderr); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)

		return exitFailure
	}

	loaders := append(target,
		opts.WithRegister(*register),
		opts.WithValues(*values),
		opts.WithDevicePath(*device),
	)

	o, err := opts.NewOpts(loaders...)
	if err != nil {
		stlog.Debug("options: %v", err)

		return usage()
	}

	stlog.Debug("register 0x%08x, %s, %d values, device %s", o.Register, o.Target, len(o.Values), o.DevicePath)

	if err := newWriter(o.DevicePath).Write(o.Register, o.Target, o.Values); err != nil {
		stlog.Error("%v", err)

		return exitCodeOf(err)
	}

	return exitOK
}

// targetLoaders collects -a, -p and --cpu in command-line order.
// Every occurrence is validated and the last one selects the target.
type targetLoaders []opts.Loader

type processorValue struct {
	loaders *targetLoaders
}

func (v processorValue) Set(s string) error {
	*v.loaders = append(*v.loaders, opts.WithProcessor(s))

	return nil
}

func (v processorValue) String() string { return "" }

func (v processorValue) IsCumulative() bool { return true }

type allValue struct {
	loaders *targetLoaders
}

func (v allValue) Set(s string) error {
	all, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}

	*v.loaders = append(*v.loaders, opts.WithAllCPUs(all))

	return nil
}

func (v allValue) String() string { return "false" }

func (v allValue) IsBoolFlag() bool { return true }

func (v allValue) IsCumulative() bool { return true }

// infoRequest reports whether help or version output was asked for
// anywhere before a "--" terminator. Those win over any other argument.
func infoRequest(args []string) string {
	for _, arg := range args {
		switch arg {
		case "--":
			return ""
		case "-h", "--help":
			return "help"
		case "-V", "--version":
			return "version"
		}
	}

	return ""
}

func setupLogging(program, level string, kmsg bool, stderr io.Writer) error {
	stlog.SetWriter(stderr)

	if kmsg {
		if err := stlog.SetOutput(stlog.KernelSyslog); err != nil {
			return err
		}
	}

	stlog.SetPrefix(program)

	switch level {
	case "e", "error":
		stlog.SetLevel(stlog.ErrorLevel)
	case "w", "warn":
		stlog.SetLevel(stlog.WarnLevel)
	case "i", "info":
		stlog.SetLevel(stlog.InfoLevel)
	case "d", "debug":
		stlog.SetLevel(stlog.DebugLevel)
	default:
		stlog.SetLevel(stlog.ErrorLevel)
	}

	return nil
}

// exitCodeOf maps a write failure to the exit code reported for it.
func exitCodeOf(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, msr.ErrNoCPU):
		return exitNoCPU
	case errors.Is(err, msr.ErrNoMSR):
		return exitNoMSR
	case errors.Is(err, msr.ErrRejected):
		return exitRejected
	default:
		return exitFailure
	}
}
