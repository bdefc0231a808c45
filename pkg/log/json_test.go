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
	"testing"
)

func TestLevelJSON(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: `"warning"`, want: Warning},
		{in: `"info"`, want: Info},
		{in: `"debug"`, want: Debug},
		{in: `0`, want: Warning},
		{in: `2`, want: Debug},
		{in: `3`, wantErr: true},
		{in: `"Debug"`, wantErr: true},
		{in: `true`, wantErr: true},
	} {
		var got Level
		err := json.Unmarshal([]byte(tc.in), &got)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Unmarshal(%s) = %v, want error", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("Unmarshal(%s) = %v, %v, want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestLevelJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal([]Level{Debug, Warning})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(b), `["debug","warning"]`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
	if _, err := json.Marshal(Level(7)); err == nil {
		t.Errorf("Marshal(Level(7)) succeeded")
	}
}
