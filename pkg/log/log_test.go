// Copyright 2018 The gVisor Authors.
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

package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"
)

type testWriter struct {
	lines []string
	fail  bool
}

func (w *testWriter) Write(bytes []byte) (int, error) {
	if w.fail {
		return 0, fmt.Errorf("simulated failure")
	}
	w.lines = append(w.lines, string(bytes))
	return len(bytes), nil
}

func TestDropMessages(t *testing.T) {
	tw := &testWriter{}
	w := &Writer{Next: tw}
	if _, err := w.Write([]byte("line 1\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	tw.fail = true
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}

	tw.fail = false
	if _, err := w.Write([]byte("line 2\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	expected := []string{
		"line 1\n",
		"\n*** Dropped 2 log messages ***\n",
		"line 2\n",
	}
	if len(tw.lines) != len(expected) {
		t.Fatalf("Writer should have logged %d lines, got: %q, expected: %q", len(expected), tw.lines, expected)
	}
	for i, l := range tw.lines {
		if l != expected[i] {
			t.Errorf("line %d doesn't match, got: %q, expected: %q", i, l, expected[i])
		}
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := &BasicLogger{Level: Info, Emitter: &Writer{Next: &buf}}
	l.Debugf("debug\n")
	l.Infof("info\n")
	l.Warningf("warning\n")
	if got, want := buf.String(), "info\nwarning\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	buf.Reset()
	l.SetLevel(Debug)
	if !l.IsLogging(Debug) {
		t.Errorf("IsLogging(Debug) = false after SetLevel(Debug)")
	}
	l.Debugf("debug %d\n", 2)
	if got, want := buf.String(), "debug 2\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Level
		ok   bool
	}{
		{"", Info, true},
		{"debug", Debug, true},
		{"Warning", Warning, true},
		{"loud", Info, false},
	} {
		got, err := ParseLevel(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tc.in, got, err)
		}
	}
}

var googleLine = regexp.MustCompile(`^I\d{4} \d{2}:\d{2}:\d{2}\.\d{6} +\d+ log_test\.go:\d+\] hello 3\n$`)

func TestGoogleEmitter(t *testing.T) {
	var buf bytes.Buffer
	l := &BasicLogger{Level: Info, Emitter: GoogleEmitter{&Writer{Next: &buf}}}
	l.Infof("hello %d", 3)
	if !googleLine.MatchString(buf.String()) {
		t.Errorf("unexpected line %q", buf.String())
	}
}

func TestJSONEmitter(t *testing.T) {
	var buf bytes.Buffer
	l := &BasicLogger{Level: Info, Emitter: JSONEmitter{&Writer{Next: &buf}}}
	l.Warningf("fd %d leaked", 7)

	var got jsonLog
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal(%q): %v", buf.String(), err)
	}
	if got.Level != Warning {
		t.Errorf("level = %v, want %v", got.Level, Warning)
	}
	if !strings.HasPrefix(got.Msg, "log_test.go:") || !strings.HasSuffix(got.Msg, "] fd 7 leaked") {
		t.Errorf("msg = %q", got.Msg)
	}
}

func TestK8sJSONEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := K8sJSONEmitter{&Writer{Next: &buf}}
	e.Emit(0, Debug, time.Unix(0, 0).UTC(), "x=%s", "y")

	var got k8sJSONLog
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal(%q): %v", buf.String(), err)
	}
	if got.Level != Debug || !strings.HasSuffix(got.Log, "] x=y") {
		t.Errorf("got %+v", got)
	}
}

func TestMultiEmitter(t *testing.T) {
	var a, b bytes.Buffer
	m := &MultiEmitter{&Writer{Next: &a}, &Writer{Next: &b}}
	m.Emit(0, Info, time.Now(), "same %s", "line")
	if a.String() != "same line" || b.String() != "same line" {
		t.Errorf("got %q and %q", a.String(), b.String())
	}
}

func TestRateLimitedLogger(t *testing.T) {
	var buf bytes.Buffer
	l := RateLimitedLogger(&BasicLogger{Level: Debug, Emitter: &Writer{Next: &buf}}, time.Hour)
	for i := 0; i < 5; i++ {
		l.Debugf("closed %d\n", i)
	}
	if got, want := buf.String(), "closed 0\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !l.IsLogging(Debug) {
		t.Errorf("IsLogging(Debug) = false")
	}
}

func TestRateLimitedLoggerSuppressed(t *testing.T) {
	var buf bytes.Buffer
	l := RateLimitedLogger(&BasicLogger{Level: Info, Emitter: &Writer{Next: &buf}}, 10*time.Millisecond)
	l.Warningf("leak %d\n", 1)
	l.Warningf("leak %d\n", 2)
	l.Warningf("leak %d\n", 3)
	// Below the level: neither logged nor counted.
	l.Debugf("quiet\n")
	time.Sleep(50 * time.Millisecond)
	l.Warningf("leak %d\n", 4)
	if got, want := buf.String(), "leak 1\n(2 similar messages suppressed) leak 4\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPatternOpts(t *testing.T) {
	o := PatternOpts{Command: "stat", Start: time.Date(2024, 5, 6, 7, 8, 9, 10000, time.UTC)}
	got := o.Build("/tmp/syslib/%COMMAND%-%TIMESTAMP%.log")
	if want := "/tmp/syslib/stat-20240506-070809.000010.log"; got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
	if f, err := OpenFile("", o); f != nil || err != nil {
		t.Errorf("OpenFile(\"\") = %v, %v", f, err)
	}
}
