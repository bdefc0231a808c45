// Copyright 2021 The gVisor Authors.
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

package linuxerr

import (
	goerrors "errors"
	"io/fs"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux/errno"
	"gvisor.dev/syslib/pkg/errors"
)

// errorMap translates the portable errors of io/fs.
var errorMap = map[error]*errors.Error{
	fs.ErrInvalid:    EINVAL,
	fs.ErrPermission: EACCES,
	fs.ErrExist:      EEXIST,
	fs.ErrNotExist:   ENOENT,
	fs.ErrClosed:     EBADF,
}

// errorUnwrappers is an array of unwrap functions to extract typed errors.
var errorUnwrappers = []func(error) (*errors.Error, bool){}

// AddErrorUnwrapper registers an unwrap method that can extract a concrete error
// from a typed, but not initialized, error.
//
// It is not safe to call concurrently with TranslateError.
func AddErrorUnwrapper(unwrap func(e error) (*errors.Error, bool)) {
	errorUnwrappers = append(errorUnwrappers, unwrap)
}

// TranslateError translates errors to errnos, it will return false if
// the error was not registered.
//
// An *errors.Error or unix.Errno anywhere in the chain of from is used as
// is. Otherwise the io/fs sentinels and then the registered unwrappers are
// tried in turn.
func TranslateError(from error) (*errors.Error, bool) {
	if from == nil {
		return nil, false
	}
	var e *errors.Error
	if goerrors.As(from, &e) && e != nil {
		return e, true
	}
	var en unix.Errno
	if goerrors.As(from, &en) && en != 0 {
		return Lookup(errno.Errno(en)), true
	}
	for sentinel, err := range errorMap {
		if goerrors.Is(from, sentinel) {
			return err, true
		}
	}
	// Try to unwrap the error if we couldn't match an error
	// exactly.  This might mean that a package has its own
	// error type.
	for _, unwrap := range errorUnwrappers {
		if err, ok := unwrap(from); ok {
			return err, true
		}
	}
	return nil, false
}
