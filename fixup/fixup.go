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

// Package fixup patches board-specific network addresses into a device tree.
package fixup

import (
	"context"
	"fmt"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/device"
	"github.com/google/dtbloader/fdt"
	"github.com/google/dtbloader/status"
	"golang.org/x/exp/slices"
)

// Address property names.
const (
	MACProperty = "local-mac-address"
	BDProperty  = "local-bd-address"
)

var (
	// MACCompatibles lists the WLAN nodes that receive a provisioned MAC address.
	MACCompatibles = []string{"qcom,wcnss-wlan", "qcom,wcn3990-wifi", "pci17cb,1103"}
	// SyntheticMACCompatibles lists the WLAN nodes that receive a synthetic MAC address.
	SyntheticMACCompatibles = []string{"qcom,wcnss-wlan", "qcom,wcn3990-wifi"}
	// BDCompatibles lists the Bluetooth nodes that receive a BD address.
	BDCompatibles = []string{"qcom,wcnss-bt", "qcom,wcn3991-bt", "qcom,wcn6855-bt"}
)

func assigned(v []byte) bool {
	return len(v) == 6 && slices.ContainsFunc(v, func(b byte) bool { return b != 0 })
}

// UpdateMAC writes addr as prop on the first node compatible with each entry of compatibles.
// A node that already has a 6-byte non-zero value keeps it. A failed write stops the update and
// earlier writes stay in place.
func UpdateMAC(ctx context.Context, tree *fdt.Tree, compatibles []string, prop string, addr [6]byte) error {
	for _, c := range compatibles {
		n := tree.FindCompatible(c)
		if n == nil {
			continue
		}
		if v, ok := fdt.Property(n, prop); ok && assigned(v) {
			output.Debugf(ctx, "%s: keeping %s % x", c, prop, v)
			continue
		}
		if err := fdt.SetProperty(n, prop, addr[:]); err != nil {
			return fmt.Errorf("%w: could not set %s on %s: %v", status.ErrInvalidParameter, prop, c, err)
		}
	}
	return nil
}

// Addresses is a source of a WLAN MAC address and a Bluetooth BD address. The BD address is in
// device tree byte order.
type Addresses interface {
	Addresses(ctx context.Context) (mac, bd [6]byte, err error)
}

func apply(ctx context.Context, tree *fdt.Tree, src Addresses, macCompatibles []string) error {
	mac, bd, err := src.Addresses(ctx)
	if err != nil {
		return err
	}
	if err := UpdateMAC(ctx, tree, macCompatibles, MACProperty, mac); err != nil {
		return err
	}
	return UpdateMAC(ctx, tree, BDCompatibles, BDProperty, bd)
}

// Engine runs the fixup selected by a device descriptor.
type Engine struct {
	Provisioned *Provisioned
	Synthetic   *Synthetic
}

// Apply patches tree for d.
func (e *Engine) Apply(ctx context.Context, d *device.Descriptor, tree *fdt.Tree) error {
	switch d.Fixup {
	case device.FixupNone:
		return nil
	case device.FixupProvisionedMAC:
		if e.Provisioned == nil {
			return fmt.Errorf("%w: no provisioning store for %s", status.ErrUnsupported, d.Name)
		}
		return apply(ctx, tree, e.Provisioned, MACCompatibles)
	case device.FixupSyntheticMAC:
		if e.Synthetic == nil {
			return fmt.Errorf("%w: no board identity for %s", status.ErrUnsupported, d.Name)
		}
		return apply(ctx, tree, e.Synthetic, SyntheticMACCompatibles)
	default:
		return fmt.Errorf("%w: unknown fixup %v", status.ErrUnsupported, d.Fixup)
	}
}
