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

// Package loader runs a boot session: it detects the machine, loads and patches its device
// tree, checks it against the accepted one, and publishes it for the next boot stage.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/dtbloader/blockdev"
	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/device"
	"github.com/google/dtbloader/dpp"
	"github.com/google/dtbloader/efivars"
	"github.com/google/dtbloader/fixup"
	"github.com/google/dtbloader/gate"
	"github.com/google/dtbloader/hwid"
	"github.com/google/dtbloader/protocol"
	"github.com/google/dtbloader/storage/storagei"
)

// ErrNoContext is returned by FromContext when ctx carries no Session.
var ErrNoContext = errors.New("no loader session in context")

// Config names the collaborators of a Session.
type Config struct {
	// Identity provides the SMBIOS identity strings.
	Identity hwid.Source
	// Board provides the system UUID and serial for synthetic addresses.
	Board fixup.BoardSource
	// Registry defaults to device.Default().
	Registry *device.Registry
	// Memory is read by panel probes. Nil fails every probe.
	Memory io.ReaderAt
	// Blocks enumerates the block devices searched for the provisioning store.
	Blocks blockdev.Enumerator
	// Media holds the device tree files.
	Media storagei.Client
	// Publisher receives the patched tree. Nil skips publication.
	Publisher *Publisher
	// Confirmer is asked before a changed tree is accepted under secure boot.
	Confirmer gate.Confirmer
	// SkipGate disables the integrity gate.
	SkipGate bool
}

// Session holds the state shared by everything that runs during one boot. The resolved device
// and the synthetic addresses are computed at most once per Session.
type Session struct {
	Fingerprinter *hwid.Fingerprinter
	Resolver      *device.Resolver
	Engine        *fixup.Engine
	Protocol      *protocol.Protocol
	// Gate is nil when disabled.
	Gate      *gate.Gate
	State     efivars.State
	Media     storagei.Client
	Blocks    blockdev.Enumerator
	Publisher *Publisher
}

// NewSession wires a Session from c.
func NewSession(c *Config) *Session {
	registry := c.Registry
	if registry == nil {
		registry = device.Default()
	}
	s := &Session{
		Fingerprinter: &hwid.Fingerprinter{Source: c.Identity},
		Media:         c.Media,
		Blocks:        c.Blocks,
		Publisher:     c.Publisher,
	}
	s.Resolver = &device.Resolver{Fingerprints: s.Fingerprinter, Registry: registry, Memory: c.Memory}
	s.Engine = &fixup.Engine{
		Provisioned: &fixup.Provisioned{Open: openStore(c.Blocks)},
		Synthetic:   &fixup.Synthetic{Board: c.Board},
	}
	s.Protocol = &protocol.Protocol{Devices: s.Resolver, Fixups: s.Engine}
	if !c.SkipGate {
		s.Gate = &gate.Gate{Vars: s.State, Confirmer: c.Confirmer}
	}
	return s
}

func openStore(blocks blockdev.Enumerator) func(context.Context) (fixup.Store, error) {
	return func(ctx context.Context) (fixup.Store, error) {
		if blocks == nil {
			return nil, fmt.Errorf("no block devices to search for the DPP partition")
		}
		s, err := dpp.Locate(ctx, blocks)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Device returns the descriptor of the running machine. An unsupported machine is
// protocol.ErrUnsupportedDevice.
func (s *Session) Device(ctx context.Context) (*device.Descriptor, error) {
	d, err := s.Resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if d == nil {
		output.Errorf(ctx, "Failed to detect this device")
		return nil, fmt.Errorf("%w: no matching device descriptor", protocol.ErrUnsupportedDevice)
	}
	return d, nil
}

type sessionKeyType struct{}

var sessionKey sessionKeyType

// NewContext returns ctx extended with s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the Session in ctx if it exists.
func FromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(sessionKey).(*Session)
	if !ok {
		return nil, ErrNoContext
	}
	return s, nil
}
