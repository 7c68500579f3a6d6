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

package fixup

import (
	"context"
	"io"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/dpp"
	"go.uber.org/multierr"
)

// BlobReader reads named blobs from a provisioning store.
type BlobReader interface {
	ReadBlob(ctx context.Context, name string) ([]byte, error)
}

// Store is an open provisioning store.
type Store interface {
	BlobReader
	io.Closer
}

// Provisioned takes the addresses written to the provisioning store at the factory.
type Provisioned struct {
	// Open returns the provisioning store. Provisioned closes it after reading.
	Open func(ctx context.Context) (Store, error)
}

// Addresses reads WLAN.PROVISION and BT.PROVISION. The BD address is the stored Bluetooth
// address with its byte order reversed.
func (p *Provisioned) Addresses(ctx context.Context) (mac, bd [6]byte, err error) {
	s, err := p.Open(ctx)
	if err != nil {
		return mac, bd, err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	wlan, err := s.ReadBlob(ctx, dpp.WLANProvision)
	if err != nil {
		return mac, bd, err
	}
	btRaw, err := s.ReadBlob(ctx, dpp.BTProvision)
	if err != nil {
		return mac, bd, err
	}
	if mac, err = dpp.ParseWLANProvision(wlan); err != nil {
		return mac, bd, err
	}
	bt, err := dpp.ParseBTProvision(btRaw)
	if err != nil {
		return mac, bd, err
	}
	for i := range bt {
		bd[5-i] = bt[i]
	}
	output.Debugf(ctx, "DPP MAC address %s, BD address %s", FormatMAC(mac), FormatBD(bd))
	return mac, bd, nil
}
