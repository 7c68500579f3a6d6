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

// Package fakevars provides an in-memory UEFI variable store for tests.
package fakevars

import (
	"context"
	"sort"

	efi "github.com/canonical/go-efilib"
)

// Entry is the contents of one variable.
type Entry struct {
	Attrs   efi.VariableAttributes
	Payload []byte
}

// Vars is an efi.VarsBackend holding variables in memory.
type Vars struct {
	Entries map[efi.VariableDescriptor]*Entry
	// Writes counts successful Set calls.
	Writes int
	// Err, if set, is returned by every operation.
	Err error
}

// New returns an empty store.
func New() *Vars {
	return &Vars{Entries: make(map[efi.VariableDescriptor]*Entry)}
}

// Context returns a copy of parent that directs go-efilib variable access to v.
func (v *Vars) Context(parent context.Context) context.Context {
	return context.WithValue(parent, efi.VarsBackendKey{}, v)
}

// Get implements efi.VarsBackend.
func (v *Vars) Get(name string, guid efi.GUID) (efi.VariableAttributes, []byte, error) {
	if v.Err != nil {
		return 0, nil, v.Err
	}
	e, ok := v.Entries[efi.VariableDescriptor{Name: name, GUID: guid}]
	if !ok {
		return 0, nil, efi.ErrVarNotExist
	}
	return e.Attrs, append([]byte(nil), e.Payload...), nil
}

// Set implements efi.VarsBackend. Writing no data deletes the variable.
func (v *Vars) Set(name string, guid efi.GUID, attrs efi.VariableAttributes, data []byte) error {
	if v.Err != nil {
		return v.Err
	}
	desc := efi.VariableDescriptor{Name: name, GUID: guid}
	v.Writes++
	if len(data) == 0 {
		delete(v.Entries, desc)
		return nil
	}
	v.Entries[desc] = &Entry{Attrs: attrs, Payload: append([]byte(nil), data...)}
	return nil
}

// List implements efi.VarsBackend.
func (v *Vars) List() ([]efi.VariableDescriptor, error) {
	if v.Err != nil {
		return nil, v.Err
	}
	var result []efi.VariableDescriptor
	for d := range v.Entries {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// AddVar adds a variable and returns v.
func (v *Vars) AddVar(name string, guid efi.GUID, attrs efi.VariableAttributes, data []byte) *Vars {
	v.Entries[efi.VariableDescriptor{Name: name, GUID: guid}] = &Entry{Attrs: attrs, Payload: data}
	return v
}

// Payload returns the contents of a variable, or nil.
func (v *Vars) Payload(name string, guid efi.GUID) []byte {
	if e, ok := v.Entries[efi.VariableDescriptor{Name: name, GUID: guid}]; ok {
		return e.Payload
	}
	return nil
}

func flag(on bool) []byte {
	if on {
		return []byte{1}
	}
	return []byte{0}
}

// SetSecureBoot sets the SecureBoot global variable and returns v.
func (v *Vars) SetSecureBoot(enabled bool) *Vars {
	return v.AddVar("SecureBoot", efi.GlobalVariable, efi.AttributeBootserviceAccess|efi.AttributeRuntimeAccess, flag(enabled))
}

// SetSetupMode sets the SetupMode global variable and returns v.
func (v *Vars) SetSetupMode(setup bool) *Vars {
	return v.AddVar("SetupMode", efi.GlobalVariable, efi.AttributeBootserviceAccess|efi.AttributeRuntimeAccess, flag(setup))
}
