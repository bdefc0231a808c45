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

	"github.com/google/subcommands"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/cleanup"
	"gvisor.dev/syslib/pkg/fd"
	"gvisor.dev/syslib/pkg/sys"
)

// Pass implements subcommands.Command for the "pass" command.
type Pass struct{}

// Name implements subcommands.Command.
func (*Pass) Name() string {
	return "pass"
}

// Synopsis implements subcommands.Command.
func (*Pass) Synopsis() string {
	return "pass open files over a unix socket pair and check what arrives"
}

// Usage implements subcommands.Command.
func (*Pass) Usage() string {
	return `pass <path>...

Opens each path, sends all of them in one SCM_RIGHTS message across a
socket pair, and reports the descriptors received on the other end.
`
}

// SetFlags implements subcommands.Command.
func (*Pass) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Pass) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	e := env(args)
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if err := e.pass(f.Args()); err != nil {
		return e.Errorf("pass: %v", err)
	}
	return subcommands.ExitSuccess
}

func (e *Env) pass(paths []string) error {
	s := e.Sys
	var cu cleanup.Cleanup
	defer cu.Clean()

	var (
		sent  []fd.Descriptor
		stats []linux.Stat
	)
	for _, path := range paths {
		file, err := s.Open(path, linux.O_RDONLY|linux.O_CLOEXEC, 0)
		if err != nil {
			return fmt.Errorf("opening %q: %w", path, err)
		}
		cu.AddCloser(file)
		sent = append(sent, file)
		st, err := s.Fstat(file)
		if err != nil {
			return err
		}
		stats = append(stats, st)
	}

	a, b, err := s.Socketpair(linux.AF_UNIX, linux.SOCK_STREAM, linux.SOCK_CLOEXEC, linux.PROTO_DEFAULT)
	if err != nil {
		return err
	}
	cu.AddCloser(a)
	cu.AddCloser(b)

	if _, err := s.SendMsg(a, [][]byte{{0}}, sys.RightsAncillary(sent...), 0); err != nil {
		return fmt.Errorf("sendmsg: %w", err)
	}
	anc := sys.NewAncillary[fd.Raw](len(sent))
	_, flags, err := s.RecvMsg(b, [][]byte{make([]byte, 1)}, anc, linux.MSG_CMSG_CLOEXEC)
	if err != nil {
		return fmt.Errorf("recvmsg: %w", err)
	}
	files, err := s.ReceivedFiles(anc)
	if err != nil {
		return err
	}
	for _, file := range files {
		cu.AddCloser(file)
	}
	if flags&linux.MSG_CTRUNC != 0 || len(files) != len(sent) {
		return fmt.Errorf("sent %d descriptors, received %d (flags %v)", len(sent), len(files), flags)
	}
	for i, file := range files {
		st, err := s.Fstat(file)
		if err != nil {
			return err
		}
		same := st.Dev == stats[i].Dev && st.Ino == stats[i].Ino
		fmt.Fprintf(e.Out, "%s: sent %v, received %v, same file: %t\n", paths[i], sent[i].Borrow(), file.Borrow(), same)
	}
	return nil
}
