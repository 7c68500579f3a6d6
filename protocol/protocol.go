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

// Package protocol implements the EFI_DT_FIXUP protocol: a two-phase call that first reports the
// buffer size a device tree needs and then patches the tree in place.
package protocol

import (
	"context"
	"fmt"

	efi "github.com/canonical/go-efilib"
	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/device"
	"github.com/google/dtbloader/fdt"
	"github.com/google/dtbloader/status"
)

// GUID identifies the protocol: e617d64c-fe08-46da-f4dc-bbd5870c7300.
var GUID = efi.MakeGUID(0xe617d64c, 0xfe08, 0x46da, 0xf4dc, [...]uint8{0xbb, 0xd5, 0x87, 0x0c, 0x73, 0x00})

const (
	// Revision is the implemented protocol revision.
	Revision = 0x00010000
	// Slack is the room added to a tree's total size before it is patched.
	Slack = 4 * 4096
)

// Flags select the work done by Fixup.
type Flags uint32

const (
	// ApplyFixups runs the fixups of the detected device.
	ApplyFixups Flags = 1 << iota
	// ReserveMemory asks for memory reservations to be applied. Nothing needs reserving here.
	ReserveMemory

	knownFlags = ApplyFixups | ReserveMemory
)

func (f Flags) String() string {
	var s string
	if f&ApplyFixups != 0 {
		s += "|apply-fixups"
	}
	if f&ReserveMemory != 0 {
		s += "|reserve-memory"
	}
	if rest := f &^ knownFlags; rest != 0 {
		s += fmt.Sprintf("|%#x", uint32(rest))
	}
	if s == "" {
		return "0"
	}
	return s[1:]
}

// Resolver picks the device the tree is patched for.
type Resolver interface {
	Resolve(ctx context.Context) (*device.Descriptor, error)
}

// Fixer patches a tree for a device.
type Fixer interface {
	Apply(ctx context.Context, d *device.Descriptor, tree *fdt.Tree) error
}

// Protocol serves Fixup calls. A Protocol may be called any number of times; the device is
// resolved at most once by Resolver.
type Protocol struct {
	Devices Resolver
	Fixups  Fixer
}

// Fixup patches the device tree at the start of blob. *size is the usable capacity of blob. If
// the capacity cannot hold the tree plus Slack, *size is set to the required capacity and a
// *status.BufferTooSmallError is returned without touching blob. On success the packed tree is
// at the start of blob and *size is its length.
func (p *Protocol) Fixup(ctx context.Context, blob []byte, size *int, flags Flags) error {
	if flags == 0 || flags&^knownFlags != 0 {
		return fmt.Errorf("%w: flags %v", status.ErrInvalidParameter, flags)
	}
	if size == nil || *size < 0 || *size > len(blob) {
		return fmt.Errorf("%w: buffer size does not describe the %d byte buffer", status.ErrInvalidParameter, len(blob))
	}
	h, err := fdt.CheckHeader(blob)
	if err != nil {
		return fmt.Errorf("%w: %w", status.ErrInvalidParameter, err)
	}
	required := int(h.TotalSize) + Slack
	if *size < required {
		output.Debugf(ctx, "fixup buffer of %d bytes too small, need %d", *size, required)
		*size = required
		return &status.BufferTooSmallError{Required: required}
	}
	tree, err := fdt.Open(blob[:*size])
	if err != nil {
		return fmt.Errorf("%w: %w", status.ErrLoadError, err)
	}
	if flags&ApplyFixups != 0 {
		if err := p.apply(ctx, tree); err != nil {
			output.Warningf(ctx, "Failed to fixup dtb: %v (%s)", err, status.Name(err))
			return err
		}
	}
	packed, err := tree.Pack()
	if err != nil {
		return fmt.Errorf("%w: %w", status.ErrLoadError, err)
	}
	if len(packed) > *size {
		return fmt.Errorf("%w: packed tree of %d bytes exceeds the %d byte buffer", status.ErrLoadError, len(packed), *size)
	}
	copy(blob, packed)
	*size = len(packed)
	return nil
}

func (p *Protocol) apply(ctx context.Context, tree *fdt.Tree) error {
	if p.Devices == nil {
		return fmt.Errorf("%w: no device resolver", ErrUnsupportedDevice)
	}
	d, err := p.Devices.Resolve(ctx)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("%w: device not detected", ErrUnsupportedDevice)
	}
	if p.Fixups == nil {
		return nil
	}
	return p.Fixups.Apply(ctx, d, tree)
}
