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

package efivars

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	efi "github.com/canonical/go-efilib"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/dtbloader/ucs2"
	"github.com/google/uuid"
)

// DefaultRoot is the Linux efivarfs mount point.
const DefaultRoot = "/sys/firmware/efi/efivars"

// FS is an efi.VarsBackend for an efivarfs directory at any root, such as a copy taken from
// another machine. Each variable is a file named Name-GUID holding a 4-byte little-endian
// attribute header followed by the data.
type FS struct {
	// Root is the mount location of the efivarfs volume.
	Root string
}

// Context returns a copy of parent that directs go-efilib variable access to f.
func (f *FS) Context(parent context.Context) context.Context {
	return context.WithValue(parent, efi.VarsBackendKey{}, f)
}

func (f *FS) root() string {
	if f.Root == "" {
		return DefaultRoot
	}
	return f.Root
}

func (f *FS) path(name string, guid efi.GUID) (string, error) {
	if _, err := ucs2.Encode(name); err != nil {
		return "", err
	}
	path, err := securejoin.SecureJoin(f.root(), fmt.Sprintf("%s-%s", name, guid))
	if err != nil {
		return "", fmt.Errorf("variable name evaluated to illegal path: %v", err)
	}
	return path, nil
}

func varError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return efi.ErrVarNotExist
	case errors.Is(err, fs.ErrPermission):
		return efi.ErrVarPermission
	}
	return err
}

// Get implements efi.VarsBackend.
func (f *FS) Get(name string, guid efi.GUID) (efi.VariableAttributes, []byte, error) {
	path, err := f.path(name, guid)
	if err != nil {
		return 0, nil, err
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, varError(err)
	}
	if len(contents) < 4 {
		return 0, nil, fmt.Errorf("variable contents ill-formed. %v does not start with 4-byte attribute header", contents)
	}
	return efi.VariableAttributes(binary.LittleEndian.Uint32(contents)), contents[4:], nil
}

// Set implements efi.VarsBackend. Writing no data deletes the variable.
func (f *FS) Set(name string, guid efi.GUID, attrs efi.VariableAttributes, data []byte) error {
	path, err := f.path(name, guid)
	if err != nil {
		return err
	}
	if err := makeMutable(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return varError(err)
	}
	if len(data) == 0 {
		return varError(os.Remove(path))
	}
	contents := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(contents, uint32(attrs))
	copy(contents[4:], data)
	return varError(os.WriteFile(path, contents, 0644))
}

// List implements efi.VarsBackend.
func (f *FS) List() ([]efi.VariableDescriptor, error) {
	entries, err := os.ReadDir(f.root())
	if err != nil {
		return nil, varError(err)
	}
	var result []efi.VariableDescriptor
	for _, e := range entries {
		// name-xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
		n := e.Name()
		if e.IsDir() || len(n) < 38 || n[len(n)-37] != '-' {
			continue
		}
		u, err := uuid.Parse(n[len(n)-36:])
		if err != nil {
			continue
		}
		result = append(result, efi.VariableDescriptor{Name: n[:len(n)-37], GUID: guidOf(u)})
	}
	return result, nil
}

func guidOf(u uuid.UUID) efi.GUID {
	var node [6]uint8
	copy(node[:], u[10:])
	return efi.MakeGUID(binary.BigEndian.Uint32(u[0:4]), binary.BigEndian.Uint16(u[4:6]),
		binary.BigEndian.Uint16(u[6:8]), binary.BigEndian.Uint16(u[8:10]), node)
}
