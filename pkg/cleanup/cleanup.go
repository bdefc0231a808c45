// Copyright 2020 The gVisor Authors.
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

// Package cleanup undoes partially built state when a multi-step operation
// fails part way.
package cleanup

import (
	"io"
)

// Cleanup is a stack of undo steps. Clean runs them newest first unless
// Release was called. The zero value is an empty stack. Usage:
//
//	var cu cleanup.Cleanup
//	defer cu.Clean()
//	cu.AddCloser(sock)
//	... // an early return here closes sock.
//	cu.Release()
//	return sock, nil
type Cleanup struct {
	steps []func() error
}

// Make returns a Cleanup holding f.
func Make(f func()) Cleanup {
	var c Cleanup
	c.Add(f)
	return c
}

// Add pushes f.
func (c *Cleanup) Add(f func()) {
	c.steps = append(c.steps, func() error {
		f()
		return nil
	})
}

// AddCloser pushes a call to cl.Close. Its error is reported by Clean.
func (c *Cleanup) AddCloser(cl io.Closer) {
	c.steps = append(c.steps, cl.Close)
}

// Clean runs every step, newest first, and empties the stack. It returns the
// first error a closer reported; the remaining steps run regardless.
func (c *Cleanup) Clean() error {
	steps := c.steps
	c.steps = nil
	return run(steps)
}

// Release empties the stack without running it, and returns a function that
// runs what was released.
func (c *Cleanup) Release() func() error {
	steps := c.steps
	c.steps = nil
	return func() error { return run(steps) }
}

func run(steps []func() error) error {
	var first error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
