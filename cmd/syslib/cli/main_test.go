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

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/require"
)

// run runs syslib against a simulated kernel rooted at a fresh directory
// holding files.
func run(t *testing.T, files map[string]string, args ...string) (subcommands.ExitStatus, string, string) {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(data), 0644))
	}
	var stdout, stderr bytes.Buffer
	status := Run(context.Background(), append([]string{"-sim-root", root}, args...), &stdout, &stderr)
	return status, stdout.String(), stderr.String()
}

func TestErrno(t *testing.T) {
	status, out, _ := run(t, nil, "errno", "EBADF", "2")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "EBADF(9): bad file number\nENOENT(2): no such file or directory\n", out)

	status, _, errs := run(t, nil, "errno", "EBOGUS")
	require.Equal(t, subcommands.ExitFailure, status)
	require.Contains(t, errs, `unknown error "EBOGUS"`)

	status, out, _ = run(t, nil, "errno", "-all")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "EHWPOISON(133)")
}

func TestMode(t *testing.T) {
	for _, args := range [][]string{{"0750"}, {"rwx", "r-x", "---"}} {
		status, out, _ := run(t, nil, append([]string{"mode"}, args...)...)
		require.Equal(t, subcommands.ExitSuccess, status, "args %v", args)
		require.Equal(t, "0750 rwx r-x --- 0o750\n", out)
	}
	status, out, _ := run(t, nil, "mode", "4755")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "4755 rwxS r-x r-x S_ISUID|0o755\n", out)

	status, _, _ = run(t, nil, "mode", "0100644")
	require.Equal(t, subcommands.ExitFailure, status)
}

func TestIoctl(t *testing.T) {
	status, out, _ := run(t, nil, "ioctl", "0x5421")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "dir=_IOC_NONE type=0x54 nr=33 size=0")
}

func TestDecode(t *testing.T) {
	status, out, _ := run(t, nil, "decode", "open", "0101")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "O_WRONLY|O_CREAT\n", out)

	status, out, _ = run(t, nil, "decode", "syscall", "3")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "close\n", out)

	status, _, _ = run(t, nil, "decode", "nope", "1")
	require.Equal(t, subcommands.ExitFailure, status)
}

func TestCat(t *testing.T) {
	files := map[string]string{"a": "hello, ", "b": "world\n"}
	status, out, _ := run(t, files, "cat", "/a", "/b")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "hello, world\n", out)

	status, _, errs := run(t, nil, "cat", "/missing")
	require.Equal(t, subcommands.ExitFailure, status)
	require.Contains(t, errs, "no such file or directory")
}

func TestStat(t *testing.T) {
	status, out, _ := run(t, map[string]string{"f": "hello"}, "stat", "/f")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "File: /f")
	require.Contains(t, out, "Size: 5 ")
	require.Contains(t, out, "regular file")
	require.Contains(t, out, "(0644 rw- r-- r--)")
}

func TestPass(t *testing.T) {
	files := map[string]string{"a": "1", "b": "2"}
	status, out, errs := run(t, files, "pass", "/a", "/b")
	require.Equal(t, subcommands.ExitSuccess, status, errs)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		require.True(t, strings.HasSuffix(l, "same file: true"), l)
	}
}

func TestUsage(t *testing.T) {
	status, _, _ := run(t, nil, "stat")
	require.Equal(t, subcommands.ExitUsageError, status)

	status, _, _ = run(t, nil, "-log-format", "xml", "errno", "1")
	require.Equal(t, subcommands.ExitUsageError, status)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "syslib.toml")
	pattern := filepath.Join(dir, "logs", "syslib-%COMMAND%.log")
	require.NoError(t, os.WriteFile(conf, []byte(`
debug = true
strace = true
log_format = "json"
log = "`+pattern+`"
`), 0644))

	status, _, errs := run(t, map[string]string{"f": "x"}, "-config", conf, "cat", "/f")
	require.Equal(t, subcommands.ExitSuccess, status, errs)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "syslib-cat.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":`)
	require.Contains(t, string(data), "open(")
	require.Contains(t, string(data), "close(")
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "syslib.toml")
	pattern := filepath.Join(dir, "syslib.log")
	require.NoError(t, os.WriteFile(conf, []byte(`log_format = "json"
log = "`+pattern+`"
`), 0644))

	status, _, _ := run(t, nil, "-config", conf, "-log-format", "json-k8s", "errno", "1")
	require.Equal(t, subcommands.ExitSuccess, status)
	data, err := os.ReadFile(pattern)
	require.NoError(t, err)
	require.Contains(t, string(data), `"log":`)
	require.NotContains(t, string(data), `"msg":`)
}
