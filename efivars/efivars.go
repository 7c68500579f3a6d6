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

// Package efivars keeps the identity of the accepted device tree in UEFI variables.
package efivars

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	efi "github.com/canonical/go-efilib"
	"github.com/google/dtbloader/status"
	"github.com/google/dtbloader/ucs2"
)

// VendorGUID owns the variables written by dtbloader.
var VendorGUID = efi.MakeGUID(0x3b8c8162, 0x3b5f, 0x4c2f, 0x9a64, [...]uint8{0x0d, 0x7e, 0x2f, 0x41, 0x6c, 0x95})

// Variable names.
const (
	// HashVariable holds the SHA-1 digest of the last accepted device tree.
	HashVariable = "DtbHash"
	// NameVariable holds the UCS-2 file name of the first accepted device tree.
	NameVariable = "DtbName"
)

// Attributes are set on every variable written by State.
const Attributes = efi.AttributeNonVolatile | efi.AttributeBootserviceAccess | efi.AttributeRuntimeAccess

// State reads and writes dtbloader's persisted variables and the platform's secure boot
// variables. The context passed to every method selects the variable backend, as with
// go-efilib; efi.DefaultVarContext uses efivarfs.
type State struct{}

func absent(err error) bool {
	return errors.Is(err, efi.ErrVarNotExist) || errors.Is(err, efi.ErrVarsUnavailable)
}

func (State) read(ctx context.Context, name string, guid efi.GUID) ([]byte, bool, error) {
	data, _, err := efi.ReadVariable(ctx, name, guid)
	if absent(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, status.IO(fmt.Errorf("could not read %s: %w", name, err))
	}
	return data, true, nil
}

func (State) write(ctx context.Context, name string, data []byte) error {
	if err := efi.WriteVariable(ctx, name, VendorGUID, Attributes, data); err != nil {
		return status.IO(fmt.Errorf("could not write %s: %w", name, err))
	}
	return nil
}

// SecureBootEnforced reports whether SecureBoot is present and non-zero while the platform is
// not in setup mode.
func (s State) SecureBootEnforced(ctx context.Context) (bool, error) {
	sb, ok, err := s.read(ctx, "SecureBoot", efi.GlobalVariable)
	if err != nil || !ok || len(sb) == 0 || sb[0] == 0 {
		return false, err
	}
	setup, ok, err := s.read(ctx, "SetupMode", efi.GlobalVariable)
	if err != nil {
		return false, err
	}
	return !(ok && len(setup) > 0 && setup[0] == 1), nil
}

// Hash returns the persisted digest, or nil if none was stored.
func (s State) Hash(ctx context.Context) ([]byte, error) {
	data, _, err := s.read(ctx, HashVariable, VendorGUID)
	return data, err
}

// SetHash persists digest.
func (s State) SetHash(ctx context.Context, digest []byte) error {
	if len(digest) == 0 {
		return fmt.Errorf("%w: empty digest", status.ErrInvalidParameter)
	}
	return s.write(ctx, HashVariable, digest)
}

// Name returns the persisted device tree name, or "" if none was stored.
func (s State) Name(ctx context.Context) (string, error) {
	data, ok, err := s.read(ctx, NameVariable, VendorGUID)
	if err != nil || !ok {
		return "", err
	}
	return ucs2.Decode(data)
}

// SetNameOnce persists name unless a name is already stored. It reports whether it wrote.
func (s State) SetNameOnce(ctx context.Context, name string) (bool, error) {
	_, ok, err := s.read(ctx, NameVariable, VendorGUID)
	if err != nil || ok {
		return false, err
	}
	data, err := ucs2.EncodeZ(name)
	if err != nil {
		return false, fmt.Errorf("%w: %v", status.ErrInvalidParameter, err)
	}
	if err := s.write(ctx, NameVariable, data); err != nil {
		return false, err
	}
	return true, nil
}

// HashMatches reports whether the persisted digest equals digest.
func (s State) HashMatches(ctx context.Context, digest []byte) (bool, error) {
	stored, err := s.Hash(ctx)
	if err != nil {
		return false, err
	}
	return stored != nil && bytes.Equal(stored, digest), nil
}
