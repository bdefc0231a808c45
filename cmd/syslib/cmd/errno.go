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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"gvisor.dev/syslib/pkg/abi/linux/errno"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// Errno implements subcommands.Command for the "errno" command.
type Errno struct {
	all bool
}

// Name implements subcommands.Command.
func (*Errno) Name() string {
	return "errno"
}

// Synopsis implements subcommands.Command.
func (*Errno) Synopsis() string {
	return "describe error numbers"
}

// Usage implements subcommands.Command.
func (*Errno) Usage() string {
	return `errno [flags] <name|number>...

Each argument is either a symbolic name such as EBADF or a number.
`
}

// SetFlags implements subcommands.Command.
func (er *Errno) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&er.all, "all", false, "list every known error number.")
}

// Execute implements subcommands.Command.Execute.
func (er *Errno) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	e := env(args)
	if er.all {
		for n := errno.Errno(1); n <= errno.MaxErrno; n++ {
			if n.Known() {
				fmt.Fprintln(e.Out, linuxerr.Lookup(n).String())
			}
		}
		return subcommands.ExitSuccess
	}
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	status := subcommands.ExitSuccess
	for _, arg := range f.Args() {
		n, ok := parseErrno(arg)
		if !ok {
			status = e.Errorf("unknown error %q", arg)
			continue
		}
		fmt.Fprintln(e.Out, linuxerr.Lookup(n).String())
	}
	return status
}

// parseErrno accepts a number or a symbolic name.
func parseErrno(s string) (errno.Errno, bool) {
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return errno.Errno(v), v != 0
	}
	for n := errno.Errno(1); n <= errno.MaxErrno; n++ {
		if n.Known() && n.Name() == s {
			return n, true
		}
	}
	return 0, false
}
