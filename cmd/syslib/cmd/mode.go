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
	"strings"

	"github.com/google/subcommands"

	"gvisor.dev/syslib/pkg/abi/linux"
)

// Mode implements subcommands.Command for the "mode" command.
type Mode struct{}

// Name implements subcommands.Command.
func (*Mode) Name() string {
	return "mode"
}

// Synopsis implements subcommands.Command.
func (*Mode) Synopsis() string {
	return "convert file modes between octal and symbolic form"
}

// Usage implements subcommands.Command.
func (*Mode) Usage() string {
	return `mode <mode>

The mode is an octal number, e.g. 0750, or three quoted triplets,
e.g. "rwx r-x ---".
`
}

// SetFlags implements subcommands.Command.
func (*Mode) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Mode) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	e := env(args)
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	m, err := parseMode(strings.Join(f.Args(), " "))
	if err != nil {
		return e.Errorf("%v", err)
	}
	fmt.Fprintf(e.Out, "%04o %s %v\n", uint32(m), m.Symbolic(), m)
	return subcommands.ExitSuccess
}

func parseMode(s string) (linux.FileMode, error) {
	if v, err := strconv.ParseUint(s, 8, 32); err == nil {
		m := linux.FileMode(v)
		if m&^(linux.PermissionsMask|linux.ModeSetUID|linux.ModeSetGID|linux.ModeSticky) != 0 {
			return 0, fmt.Errorf("invalid mode %q: only permission and extra bits are allowed", s)
		}
		return m, nil
	}
	return linux.ParseMode(s)
}
