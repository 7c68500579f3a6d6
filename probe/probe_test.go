// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package probe

import (
	"errors"
	"testing"

	"github.com/google/dtbloader/testing/match"
)

func mnvs(vpid byte) *Window {
	w := &Window{Base: T14sMNVSBase, Data: make([]byte, T14sMNVSSize)}
	w.Data[0xfaa] = vpid
	return w
}

func TestT14sOLEDAddress(t *testing.T) {
	if T14sOLED.Addr != 0xd6cf5fc2 {
		t.Errorf("T14sOLED.Addr = %#x, want 0xd6cf5fc2", T14sOLED.Addr)
	}
}

func TestPanelCheck(t *testing.T) {
	tcs := []struct {
		name    string
		mem     *Window
		want    bool
		wantErr string
	}{
		{name: "oled", mem: mnvs(4), want: true},
		{name: "ips", mem: mnvs(1), want: false},
		{name: "unmapped", mem: &Window{Base: 0x1000, Data: make([]byte, 16)}, wantErr: "outside window"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := T14sOLED.Probe(tc.mem)
			if !match.Error(err, tc.wantErr) {
				t.Fatalf("Probe() = %v, want error %q", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Probe() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPanelCheckNoMemory(t *testing.T) {
	if _, err := T14sOLED.Probe(nil); !errors.Is(err, ErrNoMemory) {
		t.Errorf("Probe(nil) = %v, want %v", err, ErrNoMemory)
	}
}

func TestDevMemPathMissing(t *testing.T) {
	mem := DevMemPath(t.TempDir() + "/mem")
	if ok, err := T14sOLED.Probe(mem); ok || err == nil {
		t.Errorf("Probe() = %v, %v, want an error", ok, err)
	}
}
