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

package fakedpp

import (
	"encoding/binary"
	"hash/crc32"

	efi "github.com/canonical/go-efilib"
	"github.com/google/dtbloader/ucs2"
)

const (
	gptHeaderSize  = 92
	gptEntrySize   = 128
	gptEntries     = 128
	gptEntryBlocks = gptEntries * gptEntrySize / BlockSize
)

// BlockSize is the logical block size of disks built by Disk.
const BlockSize = 512

// BasicDataGUID is the partition type written for every partition.
var BasicDataGUID = efi.MakeGUID(0xebd0a0a2, 0xb9e5, 0x4433, 0x87c0, [...]uint8{0x68, 0xb6, 0xb7, 0x26, 0x99, 0xc7})

// Partition is one GPT partition of a fake disk.
type Partition struct {
	Name string
	Data []byte
}

// Disk returns a disk image with a protective MBR, a primary and backup GPT header and the
// given partitions laid out in order.
func Disk(parts ...Partition) []byte {
	first := 2 + gptEntryBlocks
	lba := first
	starts := make([]int, len(parts))
	ends := make([]int, len(parts))
	for i, p := range parts {
		blocks := (len(p.Data) + BlockSize - 1) / BlockSize
		if blocks == 0 {
			blocks = 1
		}
		starts[i], ends[i] = lba, lba+blocks-1
		lba += blocks
	}
	lastUsable := lba - 1
	last := lastUsable + gptEntryBlocks + 1
	disk := make([]byte, (last+1)*BlockSize)

	// Protective MBR.
	mbr := disk[446:]
	mbr[4] = 0xee
	binary.LittleEndian.PutUint32(mbr[8:12], 1)
	binary.LittleEndian.PutUint32(mbr[12:16], uint32(last))
	disk[510], disk[511] = 0x55, 0xaa

	table := disk[2*BlockSize : (2+gptEntryBlocks)*BlockSize]
	for i, p := range parts {
		e := table[i*gptEntrySize:]
		copy(e[0:16], BasicDataGUID[:])
		e[16], e[17] = byte(i+1), 0xd9
		binary.LittleEndian.PutUint64(e[32:40], uint64(starts[i]))
		binary.LittleEndian.PutUint64(e[40:48], uint64(ends[i]))
		name, err := ucs2.Encode(p.Name)
		if err != nil {
			panic(err)
		}
		copy(e[56:128], name)
		copy(disk[starts[i]*BlockSize:], p.Data)
	}
	tableCRC := crc32.ChecksumIEEE(table)

	putHeader := func(at, my, alternate, entries int) {
		h := disk[at*BlockSize : at*BlockSize+gptHeaderSize]
		copy(h[0:8], "EFI PART")
		binary.LittleEndian.PutUint32(h[8:12], 0x00010000)
		binary.LittleEndian.PutUint32(h[12:16], gptHeaderSize)
		binary.LittleEndian.PutUint64(h[24:32], uint64(my))
		binary.LittleEndian.PutUint64(h[32:40], uint64(alternate))
		binary.LittleEndian.PutUint64(h[40:48], uint64(first))
		binary.LittleEndian.PutUint64(h[48:56], uint64(lastUsable))
		copy(h[56:72], "dtbloader-fake!!")
		binary.LittleEndian.PutUint64(h[72:80], uint64(entries))
		binary.LittleEndian.PutUint32(h[80:84], gptEntries)
		binary.LittleEndian.PutUint32(h[84:88], gptEntrySize)
		binary.LittleEndian.PutUint32(h[88:92], tableCRC)
		binary.LittleEndian.PutUint32(h[16:20], crc32.ChecksumIEEE(h))
	}
	copy(disk[(lastUsable+1)*BlockSize:], table)
	putHeader(1, 1, last, 2)
	putHeader(last, last, 1, lastUsable+1)
	return disk
}
