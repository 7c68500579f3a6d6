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

// Package blockdev enumerates block devices and the GPT partitions on them.
package blockdev

import (
	"context"
	"fmt"
	"io"

	efi "github.com/canonical/go-efilib"
	"github.com/google/dtbloader/cmd/output"
)

// DefaultBlockSize is the logical block size assumed when a device does not report one.
const DefaultBlockSize = 512

// Device is a readable block device or partition.
type Device interface {
	io.ReaderAt
	// Name identifies the device in logs.
	Name() string
	// Size returns the device size in bytes.
	Size() int64
	// PartitionName returns the GPT partition name. The second result is false when the device
	// is not a GPT partition.
	PartitionName() (string, bool)
	Close() error
}

// Enumerator lists the block devices of the machine. The caller owns every returned device and
// must close it.
type Enumerator interface {
	Devices(ctx context.Context) ([]Device, error)
}

type section struct {
	*io.SectionReader
	name   string
	part   string
	isGPT  bool
	closer io.Closer
}

func (s *section) Name() string { return s.name }
func (s *section) PartitionName() (string, bool) { return s.part, s.isGPT }

func (s *section) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// NewMemory returns a whole-disk device backed by data.
func NewMemory(name string, data []byte) Device {
	return &section{SectionReader: io.NewSectionReader(readerAt(data), 0, int64(len(data))), name: name}
}

// NewPartition returns a GPT partition device named partName backed by data.
func NewPartition(name, partName string, data []byte) Device {
	return &section{
		SectionReader: io.NewSectionReader(readerAt(data), 0, int64(len(data))),
		name:          name,
		part:          partName,
		isGPT:         true,
	}
}

type readerAt []byte

func (b readerAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Partitions reads the primary GPT of a disk and returns one device per used entry. Devices
// returned for a disk that is closed become unreadable. The closer of every partition is
// newCloser(), which may be nil.
func Partitions(ctx context.Context, disk Device, blockSize int64, newCloser func() io.Closer) ([]Device, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	table, err := efi.ReadPartitionTable(disk, disk.Size(), blockSize, efi.PrimaryPartitionTable, true)
	if err != nil {
		return nil, fmt.Errorf("could not read partition table of %s: %w", disk.Name(), err)
	}
	var result []Device
	for i, e := range table.Entries {
		if e.PartitionTypeGUID == (efi.GUID{}) {
			continue
		}
		start := int64(e.StartingLBA) * blockSize
		size := (int64(e.EndingLBA) - int64(e.StartingLBA) + 1) * blockSize
		if start < 0 || size <= 0 || start+size > disk.Size() {
			output.Warningf(ctx, "%s: partition %d lies outside the disk", disk.Name(), i+1)
			continue
		}
		p := &section{
			SectionReader: io.NewSectionReader(disk, start, size),
			name:          fmt.Sprintf("%s:%d", disk.Name(), i+1),
			part:          e.PartitionName,
			isGPT:         true,
		}
		if newCloser != nil {
			p.closer = newCloser()
		}
		result = append(result, p)
	}
	return result, nil
}

// List is an Enumerator over a fixed set of devices.
type List []Device

// Devices returns the list.
func (l List) Devices(context.Context) ([]Device, error) {
	return append([]Device(nil), l...), nil
}

// Image enumerates a disk image and the GPT partitions it contains.
type Image struct {
	Name      string
	R         io.ReaderAt
	Size      int64
	BlockSize int64
}

// Devices returns the whole image followed by its partitions. An image without a valid GPT
// yields only the whole-image device.
func (im *Image) Devices(ctx context.Context) ([]Device, error) {
	disk := &section{SectionReader: io.NewSectionReader(im.R, 0, im.Size), name: im.Name}
	parts, err := Partitions(ctx, disk, im.BlockSize, nil)
	if err != nil {
		output.Debugf(ctx, "%v", err)
	}
	return append([]Device{disk}, parts...), nil
}
