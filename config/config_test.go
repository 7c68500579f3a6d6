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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/dtbloader/testing/match"
	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	no := false
	tcs := []struct {
		name    string
		input   string
		want    *File
		wantErr string
	}{
		{
			name:  "empty",
			input: "",
			want:  &File{},
		},
		{
			name: "all fields",
			input: `esp: /boot/efi
dmi: /sys/class/dmi/id
efivars: /sys/firmware/efi/efivars
devmem: /dev/mem
block_root: /sys/class/block
dev_root: /dev
publish: /run/dtbloader/dtb
secure_boot_gate: false
smbios:
  ProductName: 21N1
  Family: ThinkPad T14s Gen 6
`,
			want: &File{
				ESP:            "/boot/efi",
				DMI:            "/sys/class/dmi/id",
				EFIVars:        "/sys/firmware/efi/efivars",
				DevMem:         "/dev/mem",
				BlockRoot:      "/sys/class/block",
				DevRoot:        "/dev",
				Publish:        "/run/dtbloader/dtb",
				SecureBootGate: &no,
				SMBIOS:         map[string]string{"ProductName": "21N1", "Family": "ThinkPad T14s Gen 6"},
			},
		},
		{
			name:    "unknown key",
			input:   "espp: /boot\n",
			wantErr: "could not parse configuration",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.input))
			if !match.Error(err, tc.wantErr) {
				t.Fatalf("Parse() = %v, want %q", err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGateEnabled(t *testing.T) {
	yes, no := true, false
	for _, tc := range []struct {
		gate *bool
		want bool
	}{{nil, true}, {&yes, true}, {&no, false}} {
		if got := (&File{SecureBootGate: tc.gate}).GateEnabled(); got != tc.want {
			t.Errorf("GateEnabled() with %v = %v, want %v", tc.gate, got, tc.want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dtbloader.yaml")
	if err := os.WriteFile(path, []byte("esp: /efi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil || f.ESP != "/efi" {
		t.Errorf("Load() = %+v, %v", f, err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !match.Error(err, "could not read configuration") {
		t.Errorf("Load(missing) = %v", err)
	}
}
