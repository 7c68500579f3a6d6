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

//go:build linux

package probe

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultDevMem is the Linux physical memory device.
const DefaultDevMem = "/dev/mem"

// DevMem reads physical memory through a page-aligned mapping of /dev/mem.
type DevMem struct {
	f *os.File
}

// OpenDevMem opens the physical memory device at path.
func OpenDevMem(path string) (*DevMem, error) {
	if path == "" {
		path = DefaultDevMem
	}
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	return &DevMem{f: f}, nil
}

// ReadAt copies len(p) bytes of physical memory starting at addr.
func (m *DevMem) ReadAt(p []byte, addr int64) (int, error) {
	page := int64(os.Getpagesize())
	base := addr &^ (page - 1)
	length := int(addr-base) + len(p)
	mapped, err := unix.Mmap(int(m.f.Fd()), base, length, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return 0, fmt.Errorf("could not map physical range %#x+%d: %w", base, length, err)
	}
	defer unix.Munmap(mapped)
	return copy(p, mapped[addr-base:]), nil
}

// Close releases the device.
func (m *DevMem) Close() error { return m.f.Close() }
