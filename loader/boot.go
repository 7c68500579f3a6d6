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

package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/device"
	"github.com/google/dtbloader/fdt"
	"github.com/google/dtbloader/status"
)

// Result describes a completed boot session.
type Result struct {
	Device *device.Descriptor
	// Profile is the hardware ID profile the device matched on.
	Profile int
	// Path is where the device tree was loaded from, or "" if no file was found.
	Path string
	// DTB is the published tree, or nil if no file was found.
	DTB []byte
}

// Boot runs the whole pipeline. A missing device tree file is not an error: the fixup protocol
// stays usable for trees supplied by later boot stages.
func (s *Session) Boot(ctx context.Context) (*Result, error) {
	d, err := s.Device(ctx)
	if err != nil {
		return nil, err
	}
	output.Infof(ctx, "Detected device: %s", d.Name)
	_, profile := s.Resolver.Resolved()
	result := &Result{Device: d, Profile: profile}

	dtb, err := AcquireDTB(ctx, s.Media, d.DTB)
	if errors.Is(err, status.ErrNotFound) {
		output.Warningf(ctx, "%v; only the fixup protocol is available", err)
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	tree, err := fdt.Open(dtb.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", status.ErrLoadError, err)
	}
	if err := s.Engine.Apply(ctx, d, tree); err != nil {
		output.Errorf(ctx, "Failed to fixup dtb: %v (%s)", err, status.Name(err))
		return nil, err
	}
	packed, err := tree.Pack()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", status.ErrLoadError, err)
	}
	if s.Gate != nil {
		if err := s.Gate.Check(ctx, packed); err != nil {
			return nil, err
		}
	}
	if wrote, err := s.State.SetNameOnce(ctx, d.DTB); err != nil {
		output.Warningf(ctx, "could not record the device tree name: %v", err)
	} else if wrote {
		output.Debugf(ctx, "recorded device tree name %s", d.DTB)
	}
	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, packed); err != nil {
			return nil, err
		}
	}
	result.Path = dtb.Path
	result.DTB = packed
	return result, nil
}
