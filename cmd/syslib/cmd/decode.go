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
	"sort"
	"strconv"

	"github.com/google/subcommands"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/dispatch"
)

// decoders render a raw value as the named flag or value set.
var decoders = map[string]func(uint64) string{
	"open":      func(v uint64) string { return linux.OpenFlags(v).String() },
	"mode":      func(v uint64) string { return linux.FileMode(v).String() },
	"prot":      func(v uint64) string { return linux.Prot(v).String() },
	"map":       func(v uint64) string { return linux.MapFlags(v).String() },
	"msg":       func(v uint64) string { return linux.MsgFlags(v).String() },
	"epoll":     func(v uint64) string { return linux.EpollEvents(v).String() },
	"sock-type": func(v uint64) string { return linux.SockTypeFlags(v).String() },
	"fd":        func(v uint64) string { return linux.FDFlags(v).String() },
	"syscall":   func(v uint64) string { return dispatch.Name(uintptr(v)) },
}

// Decode implements subcommands.Command for the "decode" command.
type Decode struct{}

// Name implements subcommands.Command.
func (*Decode) Name() string {
	return "decode"
}

// Synopsis implements subcommands.Command.
func (*Decode) Synopsis() string {
	return "render a raw flag or value word symbolically"
}

// Usage implements subcommands.Command.
func (*Decode) Usage() string {
	kinds := make([]string, 0, len(decoders))
	for k := range decoders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return fmt.Sprintf(`decode <kind> <value>...

Kinds: %v
`, kinds)
}

// SetFlags implements subcommands.Command.
func (*Decode) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Decode) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	e := env(args)
	if f.NArg() < 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	decode, ok := decoders[f.Arg(0)]
	if !ok {
		return e.Errorf("unknown kind %q", f.Arg(0))
	}
	status := subcommands.ExitSuccess
	for _, arg := range f.Args()[1:] {
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			status = e.Errorf("invalid value %q: %v", arg, err)
			continue
		}
		fmt.Fprintln(e.Out, decode(v))
	}
	return status
}
