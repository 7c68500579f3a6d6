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

// Package fakedpp builds RWFS provisioning volumes and GPT disk images for tests.
package fakedpp

import (
	"fmt"

	"github.com/google/dtbloader/dpp"
)

const (
	secondHeaderOffset = 0x100
	tableOffset        = 0x200
	regionAlign        = 0x100
	dataAlign          = 0x1000
)

// Blob is one record of a fake volume.
type Blob struct {
	Name   string
	Vendor string
	Data   []byte
	// Absent writes the record with present == 0.
	Absent bool
}

type options struct {
	slots int
	magic [4]byte
}

// Option changes how Image lays out a volume.
type Option func(*options)

// WithSlots sets the number of table records. Records past the blobs are left empty.
func WithSlots(n int) Option { return func(o *options) { o.slots = n } }

// WithMagic replaces the header magic.
func WithMagic(magic [4]byte) Option { return func(o *options) { o.magic = magic } }

func align(n, a int) int { return (n + a - 1) / a * a }

// Image returns an RWFS volume holding blobs in table order.
func Image(blobs []Blob, opts ...Option) ([]byte, error) {
	o := &options{slots: 9, magic: dpp.Magic}
	for _, opt := range opts {
		opt(o)
	}
	if o.slots < len(blobs) {
		o.slots = len(blobs)
	}
	tableSize := o.slots * dpp.SizeofBlobEntry
	dataStart := align(tableOffset+tableSize, dataAlign)

	var entries []*dpp.BlobEntry
	offt := 0
	for _, b := range blobs {
		region := align(len(b.Data), regionAlign)
		if region == 0 {
			region = regionAlign
		}
		present := uint32(1)
		if b.Absent {
			present = 0
		}
		vendor := b.Vendor
		if vendor == "" {
			vendor = "QCOM"
		}
		entries = append(entries, &dpp.BlobEntry{
			Name:      b.Name,
			Vendor:    vendor,
			RegionLen: uint32(region),
			DataLen:   uint32(len(b.Data)),
			Present:   present,
			Offset:    uint32(offt),
		})
		offt += region
	}

	image := make([]byte, dataStart+offt)
	hdr := &dpp.Header{
		Magic:      o.magic,
		Hdr2Offset: secondHeaderOffset,
		DataStart:  uint32(dataStart),
		HeaderSize: uint32(tableOffset + tableSize),
		FullLen:    uint32(len(image)),
	}
	if err := hdr.Put(image); err != nil {
		return nil, err
	}
	second := &dpp.SecondHeader{
		Magic:       dpp.Magic,
		TableOffset: tableOffset,
		TableSize:   uint32(tableSize),
		DataStart:   uint32(dataStart),
	}
	if err := second.Put(image[secondHeaderOffset:]); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if err := e.Put(image[tableOffset+i*dpp.SizeofBlobEntry:]); err != nil {
			return nil, fmt.Errorf("blob %d: %v", i, err)
		}
		copy(image[dataStart+int(e.Offset):], blobs[i].Data)
	}
	return image, nil
}

// MustImage is Image that panics on error.
func MustImage(blobs []Blob, opts ...Option) []byte {
	image, err := Image(blobs, opts...)
	if err != nil {
		panic(err)
	}
	return image
}

// Provisioning returns a volume with WLAN and BT provisioning blobs holding the given
// addresses.
func Provisioning(mac, bt [6]byte) []byte {
	return MustImage([]Blob{
		{Name: "QCOM.CALIBRATION", Data: make([]byte, 300)},
		{Name: dpp.WLANProvision, Data: append([]byte{1, 0, 6}, mac[:]...)},
		{Name: dpp.BTProvision, Data: append([]byte{1, 6}, bt[:]...)},
	})
}
