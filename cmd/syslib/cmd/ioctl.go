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

	"gvisor.dev/syslib/pkg/abi/linux"
)

// Ioctl implements subcommands.Command for the "ioctl" command.
type Ioctl struct{}

// Name implements subcommands.Command.
func (*Ioctl) Name() string {
	return "ioctl"
}

// Synopsis implements subcommands.Command.
func (*Ioctl) Synopsis() string {
	return "decode ioctl request numbers"
}

// Usage implements subcommands.Command.
func (*Ioctl) Usage() string {
	return `ioctl <request>...
`
}

// SetFlags implements subcommands.Command.
func (*Ioctl) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Ioctl) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	e := env(args)
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	status := subcommands.ExitSuccess
	for _, arg := range f.Args() {
		v, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			status = e.Errorf("invalid request %q: %v", arg, err)
			continue
		}
		cmd := uint32(v)
		fmt.Fprintf(e.Out, "%#08x: dir=%v type=%#x nr=%d size=%d\n", cmd, linux.IOCDirOf(cmd), linux.IOCType(cmd), linux.IOCNr(cmd), linux.IOCSize(cmd))
	}
	return status
}
