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

package blockdev

import (
	"context"
	"errors"
	"io"
	"os"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/dtbloader/cmd/output"
	"golang.org/x/sys/unix"
)

// Default locations of the block device class and device nodes.
const (
	DefaultSysfsRoot = "/sys/class/block"
	DefaultDevRoot   = "/dev"
)

// Sysfs enumerates whole disks listed under /sys/class/block and the GPT partitions on them.
type Sysfs struct {
	Root    string
	DevRoot string
}

func (s *Sysfs) roots() (string, string) {
	root, dev := s.Root, s.DevRoot
	if root == "" {
		root = DefaultSysfsRoot
	}
	if dev == "" {
		dev = DefaultDevRoot
	}
	return root, dev
}

// Devices opens every readable whole disk and its GPT partitions. Entries that cannot be
// resolved and disks that cannot be opened are skipped, so every device opened is returned.
func (s *Sysfs) Devices(ctx context.Context) ([]Device, error) {
	root, devRoot := s.roots()
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var result []Device
	for _, e := range entries {
		sysPath, err := securejoin.SecureJoin(root, e.Name())
		if err != nil {
			output.Debugf(ctx, "skipping %s: %v", e.Name(), err)
			continue
		}
		if _, err := os.Stat(sysPath + "/partition"); err == nil {
			// Partitions are found through the disk's partition table.
			continue
		}
		devPath, err := securejoin.SecureJoin(devRoot, e.Name())
		if err != nil {
			output.Debugf(ctx, "skipping %s: %v", e.Name(), err)
			continue
		}
		devs, err := openDisk(ctx, devPath)
		if err != nil {
			output.Debugf(ctx, "skipping %s: %v", devPath, err)
			continue
		}
		result = append(result, devs...)
	}
	return result, nil
}

func openDisk(ctx context.Context, path string) ([]Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil || size == 0 {
		f.Close()
		if err == nil {
			err = errors.New("empty device")
		}
		return nil, err
	}
	blockSize, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil {
		output.Debugf(ctx, "%s: BLKSSZGET failed, assuming %d byte blocks: %v", path, DefaultBlockSize, err)
		blockSize = DefaultBlockSize
	}
	shared := &sharedFile{f: f}
	disk := &section{SectionReader: io.NewSectionReader(f, 0, size), name: path, closer: shared.ref()}
	parts, err := Partitions(ctx, disk, int64(blockSize), shared.ref)
	if err != nil {
		output.Debugf(ctx, "%v", err)
	}
	return append([]Device{disk}, parts...), nil
}
