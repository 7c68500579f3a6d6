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

package hwid

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSource is returned by a Fingerprinter without an identity source.
var ErrNoSource = errors.New("no identity source")

// Source provides the raw identity strings of the running machine.
type Source interface {
	Identity(ctx context.Context) (RawIdentity, error)
}

// Fingerprinter computes the hardware IDs of the machine once and returns the same result on
// every later call.
type Fingerprinter struct {
	Source Source

	identity *PlatformIdentity
	set      *Set
}

// Identity returns the normalized identity of the machine.
func (f *Fingerprinter) Identity(ctx context.Context) (*PlatformIdentity, error) {
	if f.identity != nil {
		return f.identity, nil
	}
	if f.Source == nil {
		return nil, ErrNoSource
	}
	raw, err := f.Source.Identity(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read platform identity: %w", err)
	}
	id, err := NewPlatformIdentity(raw)
	if err != nil {
		return nil, err
	}
	f.identity = id
	return id, nil
}

// Fingerprints returns the hardware IDs of the machine.
func (f *Fingerprinter) Fingerprints(ctx context.Context) (*Set, error) {
	if f.set != nil {
		return f.set, nil
	}
	id, err := f.Identity(ctx)
	if err != nil {
		return nil, err
	}
	f.set = ComputeAll(id)
	return f.set, nil
}
