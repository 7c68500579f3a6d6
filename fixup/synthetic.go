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
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/smbios"
)

// BoardSource provides the identity of the physical board.
type BoardSource interface {
	Board(ctx context.Context) (*smbios.Board, error)
}

// BoardHash returns a digest of the board identity and key that is stable across reboots.
func BoardHash(b *smbios.Board, key string) [sha1.Size]byte {
	h := sha1.New()
	h.Write(b.SystemUUID[:])
	h.Write([]byte(b.Serial))
	h.Write([]byte(key))
	var sum [sha1.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// SyntheticAddresses derives a locally administered MAC address and a matching BD address from
// a board hash. The BD address is the seed in reverse byte order with its lowest bit flipped.
func SyntheticAddresses(hash [sha1.Size]byte) (mac, bd [6]byte) {
	sn := binary.LittleEndian.Uint32(hash[0:4])
	mac = [6]byte{0x02, 0x00, byte(sn >> 24), byte(sn >> 16), byte(sn >> 8), byte(sn)}
	bd = [6]byte{byte(sn ^ 1), byte(sn >> 8), byte(sn >> 16), byte(sn >> 24), 0x00, 0x02}
	return mac, bd
}

// Synthetic derives addresses from the board identity when nothing was provisioned. The result
// is computed once.
type Synthetic struct {
	Board BoardSource

	done    bool
	mac, bd [6]byte
}

// Addresses returns the synthetic addresses of the board.
func (s *Synthetic) Addresses(ctx context.Context) (mac, bd [6]byte, err error) {
	if s.done {
		return s.mac, s.bd, nil
	}
	if s.Board == nil {
		return mac, bd, fmt.Errorf("no board identity source")
	}
	board, err := s.Board.Board(ctx)
	if err != nil {
		return mac, bd, fmt.Errorf("could not identify board: %w", err)
	}
	s.mac, s.bd = SyntheticAddresses(BoardHash(board, "mac"))
	s.done = true
	output.Debugf(ctx, "Generated MAC address %s, BD address %s", FormatMAC(s.mac), FormatBD(s.bd))
	return s.mac, s.bd, nil
}

// FormatMAC formats an address in transmission order.
func FormatMAC(a [6]byte) string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// FormatBD formats a BD address stored in device tree order, most significant byte first.
func FormatBD(a [6]byte) string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[5], a[4], a[3], a[2], a[1], a[0])
}
