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

package blockdev_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/dtbloader/blockdev"
	"github.com/google/dtbloader/testing/fakedpp"
	"github.com/google/go-cmp/cmp"
)

type summary struct {
	Name string
	Part string
	GPT  bool
	Size int64
}

func summarize(devs []blockdev.Device) []summary {
	var result []summary
	for _, d := range devs {
		part, gpt := d.PartitionName()
		result = append(result, summary{Name: d.Name(), Part: part, GPT: gpt, Size: d.Size()})
	}
	return result
}

func testDisk() []byte {
	return fakedpp.Disk(
		fakedpp.Partition{Name: "esp", Data: make([]byte, 4096)},
		fakedpp.Partition{Name: "DPP", Data: []byte("RWFS")},
	)
}

func TestImageDevices(t *testing.T) {
	disk := testDisk()
	enum := &blockdev.Image{Name: "sda", R: bytes.NewReader(disk), Size: int64(len(disk)), BlockSize: fakedpp.BlockSize}
	devs, err := enum.Devices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []summary{
		{Name: "sda", Size: int64(len(disk))},
		{Name: "sda:1", Part: "esp", GPT: true, Size: 4096},
		{Name: "sda:2", Part: "DPP", GPT: true, Size: fakedpp.BlockSize},
	}
	if diff := cmp.Diff(want, summarize(devs)); diff != "" {
		t.Errorf("Devices() mismatch (-want +got):\n%s", diff)
	}
	magic := make([]byte, 4)
	if _, err := devs[2].ReadAt(magic, 0); err != nil || string(magic) != "RWFS" {
		t.Errorf("partition 2 starts with %q, %v", magic, err)
	}
}

func TestImageWithoutGPT(t *testing.T) {
	data := make([]byte, 8192)
	enum := &blockdev.Image{Name: "raw", R: bytes.NewReader(data), Size: int64(len(data))}
	devs, err := enum.Devices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(devs) != 1 || devs[0].Name() != "raw" {
		t.Errorf("Devices() = %v, want only the whole image", summarize(devs))
	}
}

func TestImageFileClosesWithLastDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	if err := os.WriteFile(path, testDisk(), 0644); err != nil {
		t.Fatal(err)
	}
	devs, err := (&blockdev.ImageFile{Path: path, BlockSize: fakedpp.BlockSize}).Devices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(devs) != 3 {
		t.Fatalf("Devices() returned %d devices, want 3", len(devs))
	}
	b := make([]byte, 4)
	for _, d := range devs[:2] {
		if err := d.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := devs[2].ReadAt(b, 0); err != nil {
		t.Errorf("ReadAt() on an open partition = %v", err)
	}
	if err := devs[2].Close(); err != nil {
		t.Fatal(err)
	}
	if err := devs[2].Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if _, err := devs[2].ReadAt(b, 0); err == nil {
		t.Error("ReadAt() succeeded after every device was closed")
	}
}

func TestList(t *testing.T) {
	l := blockdev.List{blockdev.NewMemory("a", nil), blockdev.NewPartition("b", "DPP", nil)}
	devs, err := l.Devices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	devs[0] = nil
	if l[0] == nil {
		t.Error("Devices() returned the list itself")
	}
}
