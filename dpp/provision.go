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

package dpp

import (
	"github.com/google/dtbloader/status"
	"github.com/pkg/errors"
)

// Blob names holding the factory network addresses.
const (
	WLANProvision = "WLAN.PROVISION"
	BTProvision   = "BT.PROVISION"
)

// Sizes of the provisioning blobs that are understood.
const (
	SizeofWLANProvision = 9
	SizeofBTProvision   = 8
)

// ParseWLANProvision returns the WLAN MAC address stored after three unknown bytes.
func ParseWLANProvision(b []byte) ([6]byte, error) {
	var mac [6]byte
	if len(b) != SizeofWLANProvision {
		return mac, errors.Wrapf(status.ErrUnsupported, "%s is %d bytes, want %d", WLANProvision, len(b), SizeofWLANProvision)
	}
	copy(mac[:], b[3:])
	return mac, nil
}

// ParseBTProvision returns the Bluetooth address stored after two unknown bytes, in the order it
// is stored.
func ParseBTProvision(b []byte) ([6]byte, error) {
	var mac [6]byte
	if len(b) != SizeofBTProvision {
		return mac, errors.Wrapf(status.ErrUnsupported, "%s is %d bytes, want %d", BTProvision, len(b), SizeofBTProvision)
	}
	copy(mac[:], b[2:])
	return mac, nil
}
