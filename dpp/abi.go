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

package dpp

import (
	"encoding/binary"
	"fmt"

	"github.com/google/dtbloader/ucs2"
)

const (
	// SizeofHeader is the ABI size of the packed RWFS header.
	SizeofHeader = 68
	// SizeofSecondHeader is the ABI size of the packed RWFS second header.
	SizeofSecondHeader = 68
	// SizeofBlobEntry is the ABI size of one packed blob table record.
	SizeofBlobEntry = 244
	// NameLen is the number of UCS-2 code units in a blob name or vendor field.
	NameLen = 49
)

// Magic starts both RWFS headers.
var Magic = [4]byte{'R', 'W', 'F', 'S'}

// Header is the first header of an RWFS volume. Fields named Unk are not understood and kept
// only so images can be rebuilt.
type Header struct {
	Magic      [4]byte
	Unk1       uint32
	Hdr2Offset uint32 // points to the SecondHeader
	Unk2       uint32
	Unk3       uint32
	Unk4       uint32
	DataStart  uint32
	HeaderSize uint32 // whole header including the blob table
	FullLen    uint32 // size of the volume
}

// HeaderFromBytes parses the RWFS header at the start of data.
func HeaderFromBytes(data []byte) (*Header, error) {
	if len(data) < SizeofHeader {
		return nil, fmt.Errorf("data too small for RWFS header: %d < %d", len(data), SizeofHeader)
	}
	h := &Header{
		Unk1:       binary.LittleEndian.Uint32(data[4:8]),
		Hdr2Offset: binary.LittleEndian.Uint32(data[8:12]),
		Unk2:       binary.LittleEndian.Uint32(data[12:16]),
		Unk3:       binary.LittleEndian.Uint32(data[16:20]),
		Unk4:       binary.LittleEndian.Uint32(data[20:24]),
		DataStart:  binary.LittleEndian.Uint32(data[24:28]),
		HeaderSize: binary.LittleEndian.Uint32(data[28:32]),
		FullLen:    binary.LittleEndian.Uint32(data[32:36]),
	}
	copy(h.Magic[:], data[0:4])
	return h, nil
}

// Put writes the header to the beginning of data. Padding is zeroed.
func (h *Header) Put(data []byte) error {
	if len(data) < SizeofHeader {
		return fmt.Errorf("data too small for RWFS header: %d < %d", len(data), SizeofHeader)
	}
	copy(data[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(data[4:8], h.Unk1)
	binary.LittleEndian.PutUint32(data[8:12], h.Hdr2Offset)
	binary.LittleEndian.PutUint32(data[12:16], h.Unk2)
	binary.LittleEndian.PutUint32(data[16:20], h.Unk3)
	binary.LittleEndian.PutUint32(data[20:24], h.Unk4)
	binary.LittleEndian.PutUint32(data[24:28], h.DataStart)
	binary.LittleEndian.PutUint32(data[28:32], h.HeaderSize)
	binary.LittleEndian.PutUint32(data[32:36], h.FullLen)
	clear(data[36:SizeofHeader])
	return nil
}

// SecondHeader locates the blob table and the data region.
type SecondHeader struct {
	Magic       [4]byte
	Unk1        uint32
	TableOffset uint32 // points to the first BlobEntry
	TableSize   uint32 // size of every BlobEntry slot, used or not
	Unk2        uint32
	DataStart   uint32 // blob offsets are relative to this
	Funk3       uint32
}

// SecondHeaderFromBytes parses the RWFS second header at the start of data.
func SecondHeaderFromBytes(data []byte) (*SecondHeader, error) {
	if len(data) < SizeofSecondHeader {
		return nil, fmt.Errorf("data too small for RWFS second header: %d < %d", len(data), SizeofSecondHeader)
	}
	h := &SecondHeader{
		Unk1:        binary.LittleEndian.Uint32(data[4:8]),
		TableOffset: binary.LittleEndian.Uint32(data[8:12]),
		TableSize:   binary.LittleEndian.Uint32(data[12:16]),
		Unk2:        binary.LittleEndian.Uint32(data[16:20]),
		DataStart:   binary.LittleEndian.Uint32(data[20:24]),
		Funk3:       binary.LittleEndian.Uint32(data[24:28]),
	}
	copy(h.Magic[:], data[0:4])
	return h, nil
}

// Put writes the second header to the beginning of data. Padding is zeroed.
func (h *SecondHeader) Put(data []byte) error {
	if len(data) < SizeofSecondHeader {
		return fmt.Errorf("data too small for RWFS second header: %d < %d", len(data), SizeofSecondHeader)
	}
	copy(data[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(data[4:8], h.Unk1)
	binary.LittleEndian.PutUint32(data[8:12], h.TableOffset)
	binary.LittleEndian.PutUint32(data[12:16], h.TableSize)
	binary.LittleEndian.PutUint32(data[16:20], h.Unk2)
	binary.LittleEndian.PutUint32(data[20:24], h.DataStart)
	binary.LittleEndian.PutUint32(data[24:28], h.Funk3)
	clear(data[28:SizeofSecondHeader])
	return nil
}

// BlobEntry is one record of the blob table.
type BlobEntry struct {
	Name      string
	Vendor    string // QCOM or OEM
	RegionLen uint32 // 0x100 aligned region size
	DataLen   uint32
	Present   uint32 // 1 for filled entries
	Offset    uint32 // from SecondHeader.DataStart
}

const (
	nameOffset   = 0
	vendorOffset = NameLen * 2
	fieldsOffset = 2 * NameLen * 2
)

// blobPresent reads the present field of a packed blob record without decoding its names.
func blobPresent(data []byte) bool {
	return binary.LittleEndian.Uint32(data[fieldsOffset+8:fieldsOffset+12]) != 0
}

// BlobEntryFromBytes parses the blob record at the start of data.
func BlobEntryFromBytes(data []byte) (*BlobEntry, error) {
	if len(data) < SizeofBlobEntry {
		return nil, fmt.Errorf("data too small for RWFS blob entry: %d < %d", len(data), SizeofBlobEntry)
	}
	name, err := ucs2.Decode(data[nameOffset:vendorOffset])
	if err != nil {
		return nil, fmt.Errorf("blob name: %v", err)
	}
	vendor, err := ucs2.Decode(data[vendorOffset:fieldsOffset])
	if err != nil {
		return nil, fmt.Errorf("blob vendor: %v", err)
	}
	f := data[fieldsOffset:]
	return &BlobEntry{
		Name:      name,
		Vendor:    vendor,
		RegionLen: binary.LittleEndian.Uint32(f[0:4]),
		DataLen:   binary.LittleEndian.Uint32(f[4:8]),
		Present:   binary.LittleEndian.Uint32(f[8:12]),
		Offset:    binary.LittleEndian.Uint32(f[12:16]),
	}, nil
}

func putName(data []byte, s string) error {
	b, err := ucs2.Encode(s)
	if err != nil {
		return err
	}
	if len(b) > NameLen*2 {
		return fmt.Errorf("%q is longer than %d code units", s, NameLen)
	}
	clear(data[:NameLen*2])
	copy(data, b)
	return nil
}

// Put writes the blob record to the beginning of data. Padding is zeroed.
func (e *BlobEntry) Put(data []byte) error {
	if len(data) < SizeofBlobEntry {
		return fmt.Errorf("data too small for RWFS blob entry: %d < %d", len(data), SizeofBlobEntry)
	}
	if err := putName(data[nameOffset:], e.Name); err != nil {
		return fmt.Errorf("blob name: %v", err)
	}
	if err := putName(data[vendorOffset:], e.Vendor); err != nil {
		return fmt.Errorf("blob vendor: %v", err)
	}
	f := data[fieldsOffset:]
	binary.LittleEndian.PutUint32(f[0:4], e.RegionLen)
	binary.LittleEndian.PutUint32(f[4:8], e.DataLen)
	binary.LittleEndian.PutUint32(f[8:12], e.Present)
	binary.LittleEndian.PutUint32(f[12:16], e.Offset)
	clear(f[16 : SizeofBlobEntry-fieldsOffset])
	return nil
}
