// Copyright 2024 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli is the main entrypoint for syslib.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/google/subcommands"

	"gvisor.dev/syslib/cmd/syslib/cmd"
	"gvisor.dev/syslib/cmd/syslib/config"
	"gvisor.dev/syslib/pkg/log"
)

// Main is the main entrypoint.
func Main() {
	os.Exit(int(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)))
}

// Run parses args, sets up logging and runs the selected command, writing
// its output to stdout and errors to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) subcommands.ExitStatus {
	fs := flag.NewFlagSet("syslib", flag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	cdr := subcommands.NewCommander(fs, "syslib")
	cdr.Output = stdout
	cdr.Error = stderr
	forEachCmd(cdr)

	// All commands must be registered before flag parsing.
	if err := fs.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	conf, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitUsageError
	}

	closeLog, err := setupLogging(conf, fs.Arg(0), stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	defer closeLog()

	log.Infof("syslib: %s, %s, PID %d, args %v", runtime.Version(), runtime.GOARCH, os.Getpid(), args)
	conf.Log()

	e := &cmd.Env{Sys: conf.Sys(), Out: stdout, Err: stderr}
	status := cdr.Execute(ctx, e)
	if status != subcommands.ExitSuccess {
		log.Infof("Exiting with status: %v", status)
	}
	return status
}

// forEachCmd registers every syslib command on cdr.
func forEachCmd(cdr *subcommands.Commander) {
	// Help and flags commands are generated automatically.
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")

	cdr.Register(new(cmd.Cat), "")
	cdr.Register(new(cmd.Stat), "")
	cdr.Register(new(cmd.Pass), "")

	const decodeGroup = "decoders"
	cdr.Register(new(cmd.Decode), decodeGroup)
	cdr.Register(new(cmd.Errno), decodeGroup)
	cdr.Register(new(cmd.Ioctl), decodeGroup)
	cdr.Register(new(cmd.Mode), decodeGroup)
}

// setupLogging points the global logger at the configured destination and
// returns a function that closes it.
func setupLogging(conf *config.Config, command string, stderr io.Writer) (func(), error) {
	if conf.Debug {
		log.SetLevel(log.Debug)
	} else {
		log.SetLevel(log.Info)
	}
	var out io.Writer = stderr
	closeLog := func() {}
	f, err := log.OpenFile(conf.LogFilename, log.PatternOpts{Command: command, Start: time.Now()})
	if err != nil {
		return nil, err
	}
	if f != nil {
		out = f
		closeLog = func() { f.Close() }
	}
	log.SetTarget(newEmitter(conf.LogFormat, out))
	return closeLog, nil
}

func newEmitter(format string, logFile io.Writer) log.Emitter {
	switch format {
	case "text":
		return log.GoogleEmitter{&log.Writer{Next: logFile}}
	case "json":
		return log.JSONEmitter{&log.Writer{Next: logFile}}
	case "json-k8s":
		return log.K8sJSONEmitter{&log.Writer{Next: logFile}}
	}
	panic(fmt.Sprintf("invalid log format %q", format))
}
