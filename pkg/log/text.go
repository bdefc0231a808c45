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
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// GoogleEmitter prefixes each message with a glog style header:
//
//	Lmmdd hh:mm:ss.uuuuuu pid file:line] msg
//
// where L is the level letter (D, I or W) and pid is padded to seven
// columns.
type GoogleEmitter struct {
	// Emitter is the underlying emitter.
	Emitter
}

var levelLetters = [...]byte{Warning: 'W', Info: 'I', Debug: 'D'}

// pidField is the padded pid column, computed once.
var pidField = func() string {
	pid := strconv.Itoa(os.Getpid())
	for len(pid) < 7 {
		pid = " " + pid
	}
	return pid
}()

// appendCaller appends file:line for the frame depth levels above the caller
// of appendCaller, or x:0 if the stack cannot be walked.
func appendCaller(b []byte, depth int) []byte {
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return append(b, "x:0"...)
	}
	b = append(b, filepath.Base(file)...)
	b = append(b, ':')
	return strconv.AppendInt(b, int64(line), 10)
}

// Emit implements Emitter.Emit.
func (g GoogleEmitter) Emit(depth int, level Level, timestamp time.Time, format string, args ...any) {
	var local [256]byte
	b := local[:0]
	if int(level) < len(levelLetters) {
		b = append(b, levelLetters[level])
	} else {
		b = append(b, '?')
	}
	b = timestamp.AppendFormat(b, "0102 15:04:05.000000")
	b = append(b, ' ')
	b = append(b, pidField...)
	b = append(b, ' ')
	b = appendCaller(b, depth+1)
	b = append(b, "] "...)
	// The message is formatted downstream, so the format string is copied
	// as is.
	b = append(b, format...)
	b = append(b, '\n')
	g.Emitter.Emit(depth+1, level, timestamp, string(b), args...)
}
