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

// Package dpp reads blobs from the Qualcomm device provisioning partition (DPP). The partition
// holds an RWFS volume: two headers, a table of fixed-size blob records, and a data region.
package dpp

import (
	"context"
	"io"
	"strings"

	"github.com/google/dtbloader/blockdev"
	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/status"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PartitionName is the GPT name of the provisioning partition.
const PartitionName = "DPP"

// Store reads an RWFS volume on a block device.
type Store struct {
	dev blockdev.Device
}

// Open returns a Store over dev. The store owns dev.
func Open(dev blockdev.Device) *Store { return &Store{dev: dev} }

// Device returns the underlying device.
func (s *Store) Device() blockdev.Device { return s.dev }

// Close releases the underlying device.
func (s *Store) Close() error { return s.dev.Close() }

func readAt(r io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := r.ReadAt(buf, off)
	if read == n {
		return buf, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return nil, status.IO(errors.Wrapf(err, "could not read %d bytes at %#x", n, off))
}

func (s *Store) headers() (*SecondHeader, error) {
	raw, err := readAt(s.dev, 0, SizeofHeader)
	if err != nil {
		return nil, err
	}
	hdr, err := HeaderFromBytes(raw)
	if err != nil {
		return nil, err
	}
	if hdr.Magic != Magic {
		return nil, errors.Wrapf(status.ErrUnsupported, "%s: bad RWFS magic %q", s.dev.Name(), hdr.Magic[:])
	}
	raw, err = readAt(s.dev, int64(hdr.Hdr2Offset), SizeofSecondHeader)
	if err != nil {
		return nil, err
	}
	return SecondHeaderFromBytes(raw)
}

// walk calls fn with each present blob record in table order until fn returns false. The table
// ends at the first record that is not present.
func (s *Store) walk(ctx context.Context, fn func(*SecondHeader, *BlobEntry) bool) error {
	second, err := s.headers()
	if err != nil {
		return err
	}
	for offt := uint32(0); offt < second.TableSize; offt += SizeofBlobEntry {
		raw, err := readAt(s.dev, int64(second.TableOffset)+int64(offt), SizeofBlobEntry)
		if err != nil {
			return err
		}
		if !blobPresent(raw) {
			return nil
		}
		entry, err := BlobEntryFromBytes(raw)
		if err != nil {
			output.Debugf(ctx, "%s: skipping blob record at %#x: %v", s.dev.Name(), offt, err)
			continue
		}
		if !fn(second, entry) {
			return nil
		}
	}
	return nil
}

// Entries returns every present blob record.
func (s *Store) Entries(ctx context.Context) ([]*BlobEntry, error) {
	var entries []*BlobEntry
	err := s.walk(ctx, func(_ *SecondHeader, e *BlobEntry) bool {
		entries = append(entries, e)
		return true
	})
	return entries, err
}

// ReadBlob returns the data of the blob called name, compared without regard to case.
func (s *Store) ReadBlob(ctx context.Context, name string) ([]byte, error) {
	var found *BlobEntry
	var dataStart uint32
	err := s.walk(ctx, func(second *SecondHeader, e *BlobEntry) bool {
		if !strings.EqualFold(e.Name, name) {
			return true
		}
		found, dataStart = e, second.DataStart
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errors.Wrapf(status.ErrNotFound, "blob %q", name)
	}
	start := int64(dataStart) + int64(found.Offset)
	if found.DataLen > found.RegionLen || start+int64(found.DataLen) > s.dev.Size() {
		return nil, errors.Wrapf(status.ErrUnsupported, "blob %q: %d bytes at %#x do not fit its %d byte region on %s",
			name, found.DataLen, start, found.RegionLen, s.dev.Name())
	}
	data, err := readAt(s.dev, start, int(found.DataLen))
	if err != nil {
		return nil, errors.Wrapf(err, "blob %q", name)
	}
	output.Debugf(ctx, "DPP: found %s/%s with %d bytes", found.Vendor, found.Name, found.DataLen)
	return data, nil
}

func hasMagic(dev blockdev.Device) bool {
	b, err := readAt(dev, 0, len(Magic))
	return err == nil && [4]byte(b) == Magic
}

// Locate finds the provisioning store: the first GPT partition named "DPP", or else the first
// device that starts with the RWFS magic. Every other enumerated device is closed.
func Locate(ctx context.Context, enum blockdev.Enumerator) (*Store, error) {
	devs, err := enum.Devices(ctx)
	if err != nil {
		return nil, status.IO(errors.Wrap(err, "could not enumerate block devices"))
	}
	chosen := -1
	for i, d := range devs {
		if name, ok := d.PartitionName(); ok && name == PartitionName {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		for i, d := range devs {
			if hasMagic(d) {
				chosen = i
				break
			}
		}
	}
	var closeErr error
	for i, d := range devs {
		if i != chosen {
			closeErr = multierr.Append(closeErr, d.Close())
		}
	}
	if chosen < 0 {
		return nil, multierr.Append(errors.Wrap(status.ErrNotFound, "no DPP partition"), closeErr)
	}
	if closeErr != nil {
		output.Warningf(ctx, "could not release block devices: %v", closeErr)
	}
	output.Debugf(ctx, "DPP: using %s", devs[chosen].Name())
	return Open(devs[chosen]), nil
}
