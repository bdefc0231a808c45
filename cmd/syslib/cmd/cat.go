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
	"io"

	"github.com/google/subcommands"

	"gvisor.dev/syslib/pkg/abi/linux"
)

// Cat implements subcommands.Command for the "cat" command.
type Cat struct{}

// Name implements subcommands.Command.
func (*Cat) Name() string {
	return "cat"
}

// Synopsis implements subcommands.Command.
func (*Cat) Synopsis() string {
	return "copy files to standard output"
}

// Usage implements subcommands.Command.
func (*Cat) Usage() string {
	return `cat <path>...
`
}

// SetFlags implements subcommands.Command.
func (*Cat) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Cat) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	e := env(args)
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	status := subcommands.ExitSuccess
	for _, path := range f.Args() {
		if err := e.cat(path); err != nil {
			status = e.Errorf("cat %q: %v", path, err)
		}
	}
	return status
}

func (e *Env) cat(path string) error {
	file, err := e.Sys.Open(path, linux.O_RDONLY|linux.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(e.Out, e.Sys.ReadWriter(file))
	return err
}
