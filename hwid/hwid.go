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

// Package hwid computes hardware IDs (CHIDs) from SMBIOS identity strings. The values are
// compatible with the ones printed by fwupd's `fwupdtool hwids` and Microsoft's
// ComputerHardwareIds tool.
package hwid

import (
	"bytes"
	"fmt"
	"strings"

	efi "github.com/canonical/go-efilib"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Field names one SMBIOS identity string.
type Field int

const (
	// Manufacturer is the SMBIOS type 1 manufacturer.
	Manufacturer Field = iota
	// Family is the SMBIOS type 1 family.
	Family
	// ProductName is the SMBIOS type 1 product name.
	ProductName
	// ProductSku is the SMBIOS type 1 SKU number.
	ProductSku
	// BaseboardManufacturer is the SMBIOS type 2 manufacturer.
	BaseboardManufacturer
	// BaseboardProduct is the SMBIOS type 2 product.
	BaseboardProduct

	numFields
)

// NumProfiles is the number of hardware ID slots computed per machine.
const NumProfiles = 15

var fieldNames = [numFields]string{
	Manufacturer:          "Manufacturer",
	Family:                "Family",
	ProductName:           "ProductName",
	ProductSku:            "ProductSku",
	BaseboardManufacturer: "BaseboardManufacturer",
	BaseboardProduct:      "BaseboardProduct",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Fields returns every identity field in declaration order.
func Fields() []Field {
	result := make([]Field, numFields)
	for i := range result {
		result[i] = Field(i)
	}
	return result
}

// ParseField returns the Field with the given name, ignoring case.
func ParseField(name string) (Field, error) {
	for i, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown identity field %q", name)
}

// Namespace is the name-based UUID namespace of every hardware ID.
var Namespace = uuid.MustParse("70ffd812-4c7f-4c7d-0000-000000000000")

// profiles lists the fields hashed for each profile, in hashing order. Unlisted profiles are
// reserved and always produce the zero GUID.
var profiles = [NumProfiles][]Field{
	3:  {Manufacturer, Family, ProductName, ProductSku, BaseboardManufacturer, BaseboardProduct},
	4:  {Manufacturer, Family, ProductName, ProductSku},
	5:  {Manufacturer, Family, ProductName},
	6:  {Manufacturer, ProductSku, BaseboardManufacturer, BaseboardProduct},
	7:  {Manufacturer, ProductSku},
	8:  {Manufacturer, ProductName, BaseboardManufacturer, BaseboardProduct},
	9:  {Manufacturer, ProductName},
	10: {Manufacturer, Family, BaseboardManufacturer, BaseboardProduct},
	11: {Manufacturer, Family},
	13: {Manufacturer, BaseboardManufacturer, BaseboardProduct},
	14: {Manufacturer},
}

// ProfileFields returns the fields hashed by profile, or nil for a reserved profile.
func ProfileFields(profile int) []Field {
	if profile < 0 || profile >= NumProfiles {
		return nil
	}
	return profiles[profile]
}

// RawIdentity holds the identity strings as read from firmware. A missing key is an absent
// string.
type RawIdentity map[Field]string

// PlatformIdentity is the normalized form of a RawIdentity. Every field is present; absent or
// blank strings normalize to zero-length values.
type PlatformIdentity struct {
	text [numFields]string
	wide [numFields][]byte
}

var (
	latin1  = charmap.ISO8859_1
	utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	amp     = mustWiden("&")
)

// widen zero-extends every byte of s to a UTF-16LE code unit.
func widen(s string) ([]byte, error) {
	wide, _, err := transform.Bytes(transform.Chain(latin1.NewDecoder(), utf16le.NewEncoder()), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("could not widen %q: %v", s, err)
	}
	return wide, nil
}

func mustWiden(s string) []byte {
	wide, err := widen(s)
	if err != nil {
		panic(err)
	}
	return wide
}

// Normalize strips leading spaces, then leading '0' characters, then trailing spaces.
func Normalize(s string) string {
	s = strings.TrimLeft(s, " ")
	s = strings.TrimLeft(s, "0")
	return strings.TrimRight(s, " ")
}

// NewPlatformIdentity normalizes raw.
func NewPlatformIdentity(raw RawIdentity) (*PlatformIdentity, error) {
	id := &PlatformIdentity{}
	for f, v := range raw {
		if f < 0 || f >= numFields {
			return nil, fmt.Errorf("unknown identity field %d", int(f))
		}
		n := Normalize(v)
		wide, err := widen(n)
		if err != nil {
			return nil, fmt.Errorf("%v: %v", f, err)
		}
		id.text[f] = n
		id.wide[f] = wide
	}
	return id, nil
}

// Text returns the normalized value of f.
func (p *PlatformIdentity) Text(f Field) string { return p.text[f] }

// Wide returns the normalized UTF-16LE value of f. The result must not be modified.
func (p *PlatformIdentity) Wide(f Field) []byte { return p.wide[f] }

// payload joins the wide values of fields with "&", leaving out empty fields together with
// their separator.
func (p *PlatformIdentity) payload(fields []Field) []byte {
	var b bytes.Buffer
	for _, f := range fields {
		v := p.wide[f]
		if len(v) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.Write(amp)
		}
		b.Write(v)
	}
	return b.Bytes()
}

// Compute returns the hardware ID of p for profile, or the zero GUID if the profile is
// reserved.
func Compute(p *PlatformIdentity, profile int) efi.GUID {
	fields := ProfileFields(profile)
	if fields == nil {
		return efi.GUID{}
	}
	return FromUUID(uuid.NewSHA1(Namespace, p.payload(fields)))
}

// HardwareID is a hardware ID together with the profile that produced it.
type HardwareID struct {
	Profile int
	GUID    efi.GUID
}

func (h HardwareID) String() string {
	return fmt.Sprintf("HardwareID-%d: {%v}", h.Profile, h.GUID)
}

// Set holds the hardware IDs of one machine indexed by profile.
type Set [NumProfiles]efi.GUID

// ComputeAll returns the hardware IDs of p for every profile.
func ComputeAll(p *PlatformIdentity) *Set {
	var s Set
	for profile := range s {
		s[profile] = Compute(p, profile)
	}
	return &s
}

// ID returns the hardware ID for profile.
func (s *Set) ID(profile int) HardwareID {
	return HardwareID{Profile: profile, GUID: s[profile]}
}

// Matches returns whether guid is the hardware ID computed for profile. The zero GUID never
// matches.
func (s *Set) Matches(profile int, guid efi.GUID) bool {
	if profile < 0 || profile >= NumProfiles || s[profile] == (efi.GUID{}) {
		return false
	}
	return s[profile] == guid
}
