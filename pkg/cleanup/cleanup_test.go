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

package cleanup

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type closer struct {
	name string
	err  error
	log  *[]string
}

func (c closer) Close() error {
	*c.log = append(*c.log, c.name)
	return c.err
}

func TestCleanOrder(t *testing.T) {
	var log []string
	func() {
		cu := Make(func() { log = append(log, "first") })
		defer cu.Clean()
		cu.AddCloser(closer{name: "socket", log: &log})
		cu.Add(func() { log = append(log, "last") })
	}()
	if diff := cmp.Diff([]string{"last", "socket", "first"}, log); diff != "" {
		t.Errorf("steps ran out of order (-want +got):\n%s", diff)
	}
}

func TestCleanError(t *testing.T) {
	var log []string
	errA, errB := errors.New("a"), errors.New("b")
	var cu Cleanup
	cu.AddCloser(closer{name: "a", err: errA, log: &log})
	cu.AddCloser(closer{name: "b", err: errB, log: &log})
	if err := cu.Clean(); err != errB {
		t.Errorf("Clean() = %v, want %v", err, errB)
	}
	if diff := cmp.Diff([]string{"b", "a"}, log); diff != "" {
		t.Errorf("not every step ran (-want +got):\n%s", diff)
	}
	// The stack is empty now.
	if err := cu.Clean(); err != nil {
		t.Errorf("second Clean() = %v", err)
	}
	if len(log) != 2 {
		t.Errorf("second Clean ran steps again: %v", log)
	}
}

func TestRelease(t *testing.T) {
	var log []string
	var run func() error
	func() {
		var cu Cleanup
		defer cu.Clean()
		cu.AddCloser(closer{name: "kept", log: &log})
		run = cu.Release()
	}()
	if len(log) != 0 {
		t.Fatalf("released steps ran on Clean: %v", log)
	}
	if err := run(); err != nil {
		t.Errorf("released steps = %v", err)
	}
	if diff := cmp.Diff([]string{"kept"}, log); diff != "" {
		t.Errorf("released steps (-want +got):\n%s", diff)
	}
}
