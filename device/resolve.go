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

package device

import (
	"context"
	"errors"
	"io"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/hwid"
	"github.com/google/dtbloader/status"
)

// Priority is the order in which hardware ID profiles are searched, from most to least
// specific. Profiles 13 and 14 are computed but never searched.
var Priority = []int{
	3,  // Manufacturer + Family + ProductName + ProductSku + BaseboardManufacturer + BaseboardProduct
	6,  // Manufacturer +                        ProductSku + BaseboardManufacturer + BaseboardProduct
	8,  // Manufacturer +          ProductName +              BaseboardManufacturer + BaseboardProduct
	10, // Manufacturer + Family +                            BaseboardManufacturer + BaseboardProduct
	4,  // Manufacturer + Family + ProductName + ProductSku
	5,  // Manufacturer + Family + ProductName
	7,  // Manufacturer +                        ProductSku
	9,  // Manufacturer +          ProductName
	11, // Manufacturer + Family
}

// ErrNoRegistry is returned by a Resolver without a registry.
var ErrNoRegistry = errors.New("no device registry")

// Fingerprints provides the hardware IDs of the running machine.
type Fingerprints interface {
	Fingerprints(ctx context.Context) (*hwid.Set, error)
}

// Resolver picks the descriptor of the running machine and remembers it.
type Resolver struct {
	Fingerprints Fingerprints
	Registry     *Registry
	// Memory is the physical memory reader used by panel probes.
	Memory io.ReaderAt

	resolved *Descriptor
	profile  int
}

// Resolved returns the descriptor chosen by an earlier Resolve call and the profile that
// matched, or nil.
func (r *Resolver) Resolved() (*Descriptor, int) { return r.resolved, r.profile }

// Resolve returns the descriptor of the running machine, or nil if no descriptor matches. Once
// a descriptor is found it is returned by every later call without searching again.
func (r *Resolver) Resolve(ctx context.Context) (*Descriptor, error) {
	if r.resolved != nil {
		return r.resolved, nil
	}
	if r.Registry == nil {
		return nil, ErrNoRegistry
	}
	if r.Fingerprints == nil {
		return nil, hwid.ErrNoSource
	}
	set, err := r.Fingerprints.Fingerprints(ctx)
	if err != nil {
		return nil, status.IO(err)
	}
	descs := r.Registry.All()
	for _, profile := range Priority {
		for _, d := range descs {
			for _, id := range d.HWIDs {
				if !set.Matches(profile, id) {
					continue
				}
				if !r.extraMatch(ctx, d) {
					continue
				}
				output.Debugf(ctx, "matched %q with %v", d.Name, set.ID(profile))
				r.resolved, r.profile = d, profile
				return d, nil
			}
		}
	}
	return nil, nil
}

func (r *Resolver) extraMatch(ctx context.Context, d *Descriptor) bool {
	var ok bool
	var err error
	switch d.Match.Kind {
	case MatchAlways:
		return true
	case MatchPredicate:
		if d.Match.Predicate == nil {
			return false
		}
		ok, err = d.Match.Predicate(ctx)
	case MatchPanelProbe:
		ok, err = d.Match.Panel.Probe(r.Memory)
	default:
		return false
	}
	if err != nil {
		output.Debugf(ctx, "extra match for %q failed: %v", d.Name, err)
		return false
	}
	return ok
}
