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

// Package probe senses board variants by reading firmware-owned physical memory.
package probe

import (
	"errors"
	"fmt"
	"io"
)

// ErrNoMemory is returned when a check runs without access to physical memory.
var ErrNoMemory = errors.New("no physical memory reader")

// PanelCheck reads a one-byte panel identifier at a fixed physical address.
type PanelCheck struct {
	Name string
	Addr int64
	Want uint8
}

// Probe returns whether the byte at c.Addr equals c.Want.
func (c PanelCheck) Probe(mem io.ReaderAt) (bool, error) {
	if mem == nil {
		return false, ErrNoMemory
	}
	var b [1]byte
	if _, err := mem.ReadAt(b[:], c.Addr); err != nil {
		return false, fmt.Errorf("could not read %s panel id at %#x: %w", c.Name, c.Addr, err)
	}
	return b[0] == c.Want, nil
}

// Window exposes a copy of a physical memory range as an io.ReaderAt. Reads outside the range
// fail.
type Window struct {
	Base int64
	Data []byte
}

// ReadAt reads len(p) bytes at physical address addr.
func (w *Window) ReadAt(p []byte, addr int64) (int, error) {
	off := addr - w.Base
	if off < 0 || off+int64(len(p)) > int64(len(w.Data)) {
		return 0, fmt.Errorf("physical range %#x+%d outside window %#x+%d", addr, len(p), w.Base, len(w.Data))
	}
	return copy(p, w.Data[off:]), nil
}

// DevMemPath reads physical memory through the device at the path, which is opened for each
// read and closed afterwards.
type DevMemPath string

// ReadAt reads len(p) bytes at physical address addr.
func (d DevMemPath) ReadAt(p []byte, addr int64) (int, error) {
	m, err := OpenDevMem(string(d))
	if err != nil {
		return 0, err
	}
	defer m.Close()
	return m.ReadAt(p, addr)
}
