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

// Package ucs2 converts between UTF-8 and the UCS-2 strings used by UEFI and the Qualcomm
// provisioning store.
package ucs2

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Returns an error if any rune of utf8encoding is unrepresentable in UCS-2.
// Uses the ucs2encoding for context in error messages.
func validateCodepoints(ucs2encoding, utf8encoding []byte) error {
	read := bytes.NewBuffer(utf8encoding)
	for {
		r, n, err := read.ReadRune()
		if err == io.EOF {
			break
		}
		// Bad encoding
		if r == utf8.RuneError && n == 1 {
			return fmt.Errorf("could not decode UCS-2 name %v", ucs2encoding)
		}
		if r > 0xFFFF {
			return fmt.Errorf("codepoint 0x%x is unrepresentable in UCS-2", r)
		}
	}
	return nil
}

// Decode translates a little-endian UCS-2 string to UTF-8. Decoding stops at the first NUL code
// unit, so fixed-size fields may be passed whole.
func Decode(b []byte) (string, error) {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	if len(b)%2 != 0 {
		return "", fmt.Errorf("odd UCS-2 length %d", len(b))
	}
	utf8encoding, _, err := transform.Bytes(utf16le.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("could not decode UCS-2: %v", err)
	}
	if err := validateCodepoints(b, utf8encoding); err != nil {
		return "", err
	}
	return string(utf8encoding), nil
}

// Encode translates s to little-endian UCS-2 without a terminator.
func Encode(s string) ([]byte, error) {
	for _, r := range s {
		if r > 0xFFFF {
			return nil, fmt.Errorf("codepoint 0x%x is unrepresentable in UCS-2", r)
		}
	}
	b, _, err := transform.Bytes(utf16le.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("could not encode %q as UCS-2: %v", s, err)
	}
	return b, nil
}

// EncodeZ translates s to little-endian UCS-2 followed by a NUL code unit.
func EncodeZ(s string) ([]byte, error) {
	b, err := Encode(s)
	if err != nil {
		return nil, err
	}
	return append(b, 0, 0), nil
}
