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
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// levelNames are the JSON names of each level.
var levelNames = [...]string{Warning: "warning", Info: "info", Debug: "debug"}

// MarshalJSON implements json.Marshaler.MarshalJSON.
func (l Level) MarshalJSON() ([]byte, error) {
	if int(l) >= len(levelNames) {
		return nil, fmt.Errorf("unknown level %v", l)
	}
	return strconv.AppendQuote(nil, levelNames[l]), nil
}

// UnmarshalJSON implements json.Unmarshaler.UnmarshalJSON. It accepts the
// level name as a string, or its number.
func (l *Level) UnmarshalJSON(b []byte) error {
	s := string(b)
	if name, err := strconv.Unquote(s); err == nil {
		for lv, n := range levelNames {
			if n == name {
				*l = Level(lv)
				return nil
			}
		}
	} else if n, err := strconv.ParseUint(s, 10, 32); err == nil && n < uint64(len(levelNames)) {
		*l = Level(n)
		return nil
	}
	return fmt.Errorf("unknown level %q", s)
}

// withCaller formats the message and prefixes it with the file:line of the
// frame depth levels above the caller of withCaller.
func withCaller(depth int, format string, v ...any) string {
	msg := fmt.Sprintf(format, v...)
	if _, file, line, ok := runtime.Caller(depth + 1); ok {
		if slash := strings.LastIndexByte(file, '/'); slash >= 0 {
			file = file[slash+1:]
		}
		msg = file + ":" + strconv.Itoa(line) + "] " + msg
	}
	return msg
}

// emitJSON writes rec as one line to w. A record that cannot be encoded is
// a bug in this package.
func emitJSON(w *Writer, rec any) {
	b, err := json.Marshal(rec)
	if err != nil {
		panic(err)
	}
	w.Write(append(b, '\n'))
}

type jsonLog struct {
	Msg   string    `json:"msg"`
	Level Level     `json:"level"`
	Time  time.Time `json:"time"`
}

// JSONEmitter logs messages as JSON objects with msg, level and time keys,
// one per line.
type JSONEmitter struct {
	*Writer
}

// Emit implements Emitter.Emit.
func (e JSONEmitter) Emit(depth int, level Level, timestamp time.Time, format string, v ...any) {
	emitJSON(e.Writer, jsonLog{
		Msg:   withCaller(depth+1, format, v...),
		Level: level,
		Time:  timestamp,
	})
}

type k8sJSONLog struct {
	Log   string    `json:"log"`
	Level Level     `json:"level"`
	Time  time.Time `json:"time"`
}

// K8sJSONEmitter is JSONEmitter with the message under the log key, as
// Kubernetes' fluentd configuration expects.
type K8sJSONEmitter struct {
	*Writer
}

// Emit implements Emitter.Emit.
func (e K8sJSONEmitter) Emit(depth int, level Level, timestamp time.Time, format string, v ...any) {
	emitJSON(e.Writer, k8sJSONLog{
		Log:   withCaller(depth+1, format, v...),
		Level: level,
		Time:  timestamp,
	})
}
