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

// Package device holds the table of supported machines and selects the one the loader runs on.
package device

import (
	"context"
	"fmt"
	"strings"

	efi "github.com/canonical/go-efilib"
	"github.com/google/dtbloader/probe"
)

// MatchKind selects the extra check a descriptor needs after a hardware ID matched.
type MatchKind int

const (
	// MatchAlways accepts every hardware ID match.
	MatchAlways MatchKind = iota
	// MatchPredicate runs Match.Predicate.
	MatchPredicate
	// MatchPanelProbe reads the panel id described by Match.Panel.
	MatchPanelProbe
)

// PredicateFunc decides whether a descriptor applies to the running machine.
type PredicateFunc func(ctx context.Context) (bool, error)

// Match is the extra-match capability of a descriptor.
type Match struct {
	Kind      MatchKind
	Predicate PredicateFunc
	Panel     probe.PanelCheck
}

// FixupKind selects the device-tree fixups applied for a descriptor.
type FixupKind int

const (
	// FixupNone leaves the device tree as loaded.
	FixupNone FixupKind = iota
	// FixupProvisionedMAC writes the network addresses stored in the DPP partition.
	FixupProvisionedMAC
	// FixupSyntheticMAC writes network addresses derived from the board identity.
	FixupSyntheticMAC
)

func (k FixupKind) String() string {
	switch k {
	case FixupNone:
		return "none"
	case FixupProvisionedMAC:
		return "provisioned-mac"
	case FixupSyntheticMAC:
		return "synthetic-mac"
	}
	return fmt.Sprintf("FixupKind(%d)", int(k))
}

// Descriptor describes one supported machine.
type Descriptor struct {
	// Name is the marketing name.
	Name string
	// DTB is the device-tree file name relative to a DTB directory, with '\' separators.
	DTB string
	// HWIDs are the hardware IDs that identify the machine, of any profile.
	HWIDs []efi.GUID
	Match Match
	Fixup FixupKind
}

// DTBPath returns the DTB file name with '/' separators.
func (d *Descriptor) DTBPath() string { return strings.ReplaceAll(d.DTB, `\`, "/") }

// Registry is the ordered table of descriptors. Every primary descriptor is tried before any
// fallback descriptor for the same hardware ID profile.
type Registry struct {
	Primary  []*Descriptor
	Fallback []*Descriptor
}

// NewRegistry returns a registry searching primary before fallback.
func NewRegistry(primary, fallback []*Descriptor) *Registry {
	return &Registry{Primary: primary, Fallback: fallback}
}

// All returns the descriptors in search order.
func (r *Registry) All() []*Descriptor {
	all := make([]*Descriptor, 0, len(r.Primary)+len(r.Fallback))
	all = append(all, r.Primary...)
	return append(all, r.Fallback...)
}

// Lookup returns the descriptor with the given name, ignoring case, or nil.
func (r *Registry) Lookup(name string) *Descriptor {
	for _, d := range r.All() {
		if strings.EqualFold(d.Name, name) {
			return d
		}
	}
	return nil
}
