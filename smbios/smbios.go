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

// Package smbios provides the SMBIOS strings that identify the running machine.
package smbios

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	efi "github.com/canonical/go-efilib"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/dtbloader/hwid"
	"github.com/google/dtbloader/status"
	"github.com/google/uuid"
)

// DefaultDMIRoot is where Linux exposes the SMBIOS identity strings.
const DefaultDMIRoot = "/sys/class/dmi/id"

// ErrNoBoard is returned when no system UUID is available to identify the board.
var ErrNoBoard = errors.New("no SMBIOS system UUID")

// dmiFiles maps identity fields to their sysfs attribute.
var dmiFiles = map[hwid.Field]string{
	hwid.Manufacturer:          "sys_vendor",
	hwid.Family:                "product_family",
	hwid.ProductName:           "product_name",
	hwid.ProductSku:            "product_sku",
	hwid.BaseboardManufacturer: "board_vendor",
	hwid.BaseboardProduct:      "board_name",
}

// Board identifies one physical board across reboots.
type Board struct {
	// SystemUUID is the SMBIOS type 1 UUID in its table byte order.
	SystemUUID efi.GUID
	// Serial is the SMBIOS type 1 serial number, or empty if the table has none.
	Serial string
}

// Sysfs reads SMBIOS strings from the Linux DMI sysfs directory.
type Sysfs struct {
	// Root is the DMI attribute directory. Empty means DefaultDMIRoot.
	Root string
}

func (s *Sysfs) root() string {
	if s.Root == "" {
		return DefaultDMIRoot
	}
	return s.Root
}

// read returns the attribute's value without its trailing newline. A missing attribute reports
// found == false.
func (s *Sysfs) read(name string) (value string, found bool, err error) {
	p, err := securejoin.SecureJoin(s.root(), name)
	if err != nil {
		return "", false, fmt.Errorf("DMI attribute %q evaluated to illegal path: %v", name, err)
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, status.IO(fmt.Errorf("could not read DMI attribute %q: %w", name, err))
	}
	return strings.TrimRight(string(data), "\n"), true, nil
}

// Identity returns the identity strings present in sysfs.
func (s *Sysfs) Identity(_ context.Context) (hwid.RawIdentity, error) {
	raw := hwid.RawIdentity{}
	for f, name := range dmiFiles {
		v, found, err := s.read(name)
		if err != nil {
			return nil, err
		}
		if found {
			raw[f] = v
		}
	}
	return raw, nil
}

// Board returns the system UUID and serial number. Linux prints the UUID with its first three
// fields swapped into canonical order, so they are swapped back to the table layout.
func (s *Sysfs) Board(_ context.Context) (*Board, error) {
	v, found, err := s.read("product_uuid")
	if err != nil {
		return nil, err
	}
	if !found || v == "" {
		return nil, ErrNoBoard
	}
	u, err := uuid.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("could not parse product_uuid %q: %v", v, err)
	}
	serial, _, err := s.read("product_serial")
	if err != nil {
		return nil, err
	}
	return &Board{SystemUUID: hwid.FromUUID(u), Serial: serial}, nil
}

// Static is a fixed identity, used for overrides and on machines without DMI support.
type Static struct {
	Raw        hwid.RawIdentity
	BoardIdent *Board
}

// Identity returns the fixed identity strings.
func (s *Static) Identity(context.Context) (hwid.RawIdentity, error) { return s.Raw, nil }

// Board returns the fixed board identity.
func (s *Static) Board(context.Context) (*Board, error) {
	if s.BoardIdent == nil {
		return nil, ErrNoBoard
	}
	return s.BoardIdent, nil
}

// Override layers explicit field values on top of another source.
type Override struct {
	Base   hwid.Source
	Fields hwid.RawIdentity
}

// Identity returns the base identity with the override fields replaced.
func (o *Override) Identity(ctx context.Context) (hwid.RawIdentity, error) {
	raw := hwid.RawIdentity{}
	if o.Base != nil {
		base, err := o.Base.Identity(ctx)
		if err != nil {
			return nil, err
		}
		for k, v := range base {
			raw[k] = v
		}
	}
	for k, v := range o.Fields {
		raw[k] = v
	}
	return raw, nil
}
