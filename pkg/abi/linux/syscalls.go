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

package linux

import (
	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi"
)

// SyscallNames names the amd64 system call numbers this module issues, plus
// a few that commonly appear next to them in traces.
var SyscallNames = abi.ValueSet[uintptr]{
	unix.SYS_READ:          {Name: "read", Label: "read from a file descriptor"},
	unix.SYS_WRITE:         {Name: "write", Label: "write to a file descriptor"},
	unix.SYS_OPEN:          {Name: "open", Label: "open a file"},
	unix.SYS_CLOSE:         {Name: "close", Label: "close a file descriptor"},
	unix.SYS_STAT:          {Name: "stat", Label: "get file status"},
	unix.SYS_FSTAT:         {Name: "fstat", Label: "get file status by descriptor"},
	unix.SYS_LSTAT:         {Name: "lstat", Label: "get file status without following links"},
	unix.SYS_LSEEK:         {Name: "lseek", Label: "reposition file offset"},
	unix.SYS_MMAP:          {Name: "mmap", Label: "map memory"},
	unix.SYS_MPROTECT:      {Name: "mprotect", Label: "set protection on a region of memory"},
	unix.SYS_MUNMAP:        {Name: "munmap", Label: "unmap memory"},
	unix.SYS_IOCTL:         {Name: "ioctl", Label: "control device"},
	unix.SYS_PREAD64:       {Name: "pread64", Label: "read from a file descriptor at an offset"},
	unix.SYS_READV:         {Name: "readv", Label: "read into multiple buffers"},
	unix.SYS_WRITEV:        {Name: "writev", Label: "write from multiple buffers"},
	unix.SYS_PIPE:          {Name: "pipe", Label: "create a pipe"},
	unix.SYS_MREMAP:        {Name: "mremap", Label: "remap a memory region"},
	unix.SYS_DUP:           {Name: "dup", Label: "duplicate a file descriptor"},
	unix.SYS_GETPID:        {Name: "getpid", Label: "get process identification"},
	unix.SYS_SOCKET:        {Name: "socket", Label: "create an endpoint for communication"},
	unix.SYS_CONNECT:       {Name: "connect", Label: "initiate a connection on a socket"},
	unix.SYS_ACCEPT:        {Name: "accept", Label: "accept a connection on a socket"},
	unix.SYS_SENDMSG:       {Name: "sendmsg", Label: "send a message on a socket"},
	unix.SYS_RECVMSG:       {Name: "recvmsg", Label: "receive a message from a socket"},
	unix.SYS_SHUTDOWN:      {Name: "shutdown", Label: "shut down part of a full-duplex connection"},
	unix.SYS_BIND:          {Name: "bind", Label: "bind a name to a socket"},
	unix.SYS_LISTEN:        {Name: "listen", Label: "listen for connections on a socket"},
	unix.SYS_SOCKETPAIR:    {Name: "socketpair", Label: "create a pair of connected sockets"},
	unix.SYS_EXIT:          {Name: "exit", Label: "terminate the calling thread"},
	unix.SYS_FCNTL:         {Name: "fcntl", Label: "manipulate file descriptor"},
	unix.SYS_FTRUNCATE:     {Name: "ftruncate", Label: "truncate a file to a specified length"},
	unix.SYS_UNLINK:        {Name: "unlink", Label: "delete a name"},
	unix.SYS_PRCTL:         {Name: "prctl", Label: "operations on a process or thread"},
	unix.SYS_EXIT_GROUP:    {Name: "exit_group", Label: "exit all threads in a process"},
	unix.SYS_EPOLL_WAIT:    {Name: "epoll_wait", Label: "wait for an I/O event on an epoll file descriptor"},
	unix.SYS_EPOLL_CTL:     {Name: "epoll_ctl", Label: "control interface for an epoll file descriptor"},
	unix.SYS_ACCEPT4:       {Name: "accept4", Label: "accept a connection on a socket with flags"},
	unix.SYS_EPOLL_CREATE1: {Name: "epoll_create1", Label: "open an epoll file descriptor"},
	unix.SYS_PIPE2:         {Name: "pipe2", Label: "create a pipe with flags"},
	unix.SYS_MEMFD_CREATE:  {Name: "memfd_create", Label: "create an anonymous file"},
}
