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
	"time"

	"github.com/google/subcommands"

	"gvisor.dev/syslib/pkg/abi/linux"
)

// Stat implements subcommands.Command for the "stat" command.
type Stat struct {
	noFollow bool
}

// Name implements subcommands.Command.
func (*Stat) Name() string {
	return "stat"
}

// Synopsis implements subcommands.Command.
func (*Stat) Synopsis() string {
	return "display file status"
}

// Usage implements subcommands.Command.
func (*Stat) Usage() string {
	return `stat [flags] <path>...
`
}

// SetFlags implements subcommands.Command.
func (s *Stat) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&s.noFollow, "L", false, "do not follow a final symbolic link.")
}

// Execute implements subcommands.Command.Execute.
func (s *Stat) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	e := env(args)
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	status := subcommands.ExitSuccess
	for _, path := range f.Args() {
		var (
			st  linux.Stat
			err error
		)
		if s.noFollow {
			st, err = e.Sys.Lstat(path)
		} else {
			st, err = e.Sys.Stat(path)
		}
		if err != nil {
			status = e.Errorf("stat %q: %v", path, err)
			continue
		}
		printStat(e, path, &st)
	}
	return status
}

func printStat(e *Env, path string, st *linux.Stat) {
	mode := st.FileMode()
	fmt.Fprintf(e.Out, "  File: %s\n", path)
	fmt.Fprintf(e.Out, "  Size: %-12d Blocks: %-8d IO Block: %-6d %s\n", st.Size, st.Blocks, st.Blksize, mode.FileTypeLabel())
	fmt.Fprintf(e.Out, "Device: %-12v Inode: %-9d Links: %d\n", st.Dev, st.Ino, st.Nlink)
	fmt.Fprintf(e.Out, "Access: (%04o %s)  Uid: %d  Gid: %d\n", uint32(mode.Permissions()|mode.ExtraBits()), mode.Symbolic(), st.UID, st.GID)
	fmt.Fprintf(e.Out, "Modify: %s\n", st.MTime.ToTime().UTC().Format(time.RFC3339Nano))
}
