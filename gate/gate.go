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

// Package gate asks for confirmation before a changed device tree is used on a machine that
// enforces secure boot.
package gate

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/status"
)

// Vars is the persisted state consulted by the gate. efivars.State implements it.
type Vars interface {
	SecureBootEnforced(ctx context.Context) (bool, error)
	// Hash returns the stored digest, or nil.
	Hash(ctx context.Context) ([]byte, error)
	SetHash(ctx context.Context, digest []byte) error
}

// Confirmer asks the user a yes or no question. It may wait indefinitely.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Gate compares a device tree with the one accepted on the previous boot.
type Gate struct {
	Vars      Vars
	Confirmer Confirmer
}

// Check passes when secure boot is not enforced or blob's digest equals the stored one.
// Otherwise it asks for confirmation and stores the new digest once the user accepts.
func (g *Gate) Check(ctx context.Context, blob []byte) error {
	active, err := g.Vars.SecureBootEnforced(ctx)
	if err != nil {
		return err
	}
	if !active {
		output.Debugf(ctx, "secure boot is not enforced, skipping the device tree check")
		return nil
	}
	sum := sha1.Sum(blob)
	stored, err := g.Vars.Hash(ctx)
	if err != nil {
		return err
	}
	if bytes.Equal(stored, sum[:]) {
		return nil
	}
	if g.Confirmer == nil {
		return fmt.Errorf("%w: device tree %x needs confirmation", status.ErrAborted, sum)
	}
	prompt := fmt.Sprintf("The device tree has changed since it was last accepted (SHA-1 %x).\nBoot with it? [y/n] ", sum)
	if stored == nil {
		prompt = fmt.Sprintf("No device tree has been accepted on this machine yet (SHA-1 %x).\nBoot with it? [y/n] ", sum)
	}
	ok, err := g.Confirmer.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: device tree %x was rejected", status.ErrAborted, sum)
	}
	output.Infof(ctx, "accepted device tree %x", sum)
	return g.Vars.SetHash(ctx, sum[:])
}
