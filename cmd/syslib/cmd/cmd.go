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

// Package cmd holds implementations of the syslib commands.
package cmd

import (
	"fmt"
	"io"

	"github.com/google/subcommands"

	"gvisor.dev/syslib/pkg/log"
	"gvisor.dev/syslib/pkg/sys"
)

// Env is passed as the first argument to every command's Execute.
type Env struct {
	// Sys issues the system calls.
	Sys *sys.Sys

	// Out receives command output.
	Out io.Writer

	// Err receives error messages.
	Err io.Writer
}

func env(args []any) *Env {
	return args[0].(*Env)
}

// Errorf logs the error and prints it to e.Err, then returns the failure
// status.
func (e *Env) Errorf(format string, args ...any) subcommands.ExitStatus {
	log.Warningf(format, args...)
	fmt.Fprintf(e.Err, format+"\n", args...)
	return subcommands.ExitFailure
}
