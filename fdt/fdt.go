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

// Package fdt parses, edits and packs flattened device trees.
package fdt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/u-root/u-root/pkg/dt"
)

const (
	// Magic starts every flattened device tree.
	Magic = 0xd00dfeed
	// SizeofHeader is the size of a version 17 header.
	SizeofHeader = 40
	// Version is the format version written by Pack.
	Version = 17
	// LastCompVersion is the oldest version compatible with Version.
	LastCompVersion = 16
)

// ErrMalformed is returned for a blob that is not a usable device tree.
var ErrMalformed = errors.New("malformed device tree")

// Header is the fixed header at the start of a device tree blob.
type Header struct {
	Magic           uint32
	TotalSize       uint32
	OffDtStruct     uint32
	OffDtStrings    uint32
	OffMemRsvmap    uint32
	Version         uint32
	LastCompVersion uint32
	BootCpuidPhys   uint32
	SizeDtStrings   uint32
	SizeDtStruct    uint32
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// CheckHeader validates the header at the start of b and that the blob it describes fits in b.
func CheckHeader(b []byte) (*Header, error) {
	if len(b) < SizeofHeader {
		return nil, malformed("%d bytes is smaller than a header", len(b))
	}
	var f [10]uint32
	for i := range f {
		f[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	h := &Header{
		Magic:           f[0],
		TotalSize:       f[1],
		OffDtStruct:     f[2],
		OffDtStrings:    f[3],
		OffMemRsvmap:    f[4],
		Version:         f[5],
		LastCompVersion: f[6],
		BootCpuidPhys:   f[7],
		SizeDtStrings:   f[8],
		SizeDtStruct:    f[9],
	}
	if h.Magic != Magic {
		return nil, malformed("bad magic %#x", h.Magic)
	}
	if h.TotalSize < SizeofHeader || uint64(h.TotalSize) > uint64(len(b)) {
		return nil, malformed("total size %d outside [%d, %d]", h.TotalSize, SizeofHeader, len(b))
	}
	if h.Version < LastCompVersion || h.LastCompVersion > Version {
		return nil, malformed("unsupported version %d (compatible with %d)", h.Version, h.LastCompVersion)
	}
	blocks := []struct {
		name      string
		off, size uint32
	}{
		{"memory reservation block", h.OffMemRsvmap, 16},
		{"structure block", h.OffDtStruct, h.SizeDtStruct},
		{"strings block", h.OffDtStrings, h.SizeDtStrings},
	}
	for _, blk := range blocks {
		if blk.off < SizeofHeader || uint64(blk.off)+uint64(blk.size) > uint64(h.TotalSize) {
			return nil, malformed("%s at %#x+%d outside the blob", blk.name, blk.off, blk.size)
		}
	}
	return h, nil
}

// Tree is an editable device tree.
type Tree struct {
	fdt *dt.FDT
}

// Open parses the device tree at the start of b.
func Open(b []byte) (*Tree, error) {
	h, err := CheckHeader(b)
	if err != nil {
		return nil, err
	}
	f, err := dt.ReadFDT(bytes.NewReader(b[:h.TotalSize]))
	if err != nil {
		return nil, malformed("%v", err)
	}
	if f.RootNode == nil {
		return nil, malformed("no root node")
	}
	return &Tree{fdt: f}, nil
}

// New returns a tree with the given root node.
func New(root *dt.Node) *Tree {
	return &Tree{fdt: &dt.FDT{RootNode: root}}
}

// Root returns the root node.
func (t *Tree) Root() *dt.Node { return t.fdt.RootNode }

// Pack serializes the tree without padding.
func (t *Tree) Pack() ([]byte, error) {
	t.fdt.Header.Magic = Magic
	t.fdt.Header.Version = Version
	t.fdt.Header.LastCompVersion = LastCompVersion
	var buf bytes.Buffer
	if _, err := t.fdt.Write(&buf); err != nil {
		return nil, fmt.Errorf("could not pack device tree: %w", err)
	}
	return buf.Bytes(), nil
}

// Compatible returns the entries of the node's compatible string list.
func Compatible(n *dt.Node) []string {
	v, ok := Property(n, "compatible")
	if !ok {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(v), "\x00"), "\x00")
}

// FindCompatible returns the first node in depth-first order whose compatible list contains c,
// or nil.
func (t *Tree) FindCompatible(c string) *dt.Node {
	var visit func(n *dt.Node) *dt.Node
	visit = func(n *dt.Node) *dt.Node {
		for _, entry := range Compatible(n) {
			if entry == c {
				return n
			}
		}
		for _, child := range n.Children {
			if found := visit(child); found != nil {
				return found
			}
		}
		return nil
	}
	if t.Root() == nil {
		return nil
	}
	return visit(t.Root())
}

// Property returns the raw value of the named property of n.
func Property(n *dt.Node, name string) ([]byte, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// SetProperty replaces the value of the named property of n, adding the property if needed.
func SetProperty(n *dt.Node, name string, value []byte) error {
	if n == nil {
		return errors.New("no node")
	}
	v := append([]byte(nil), value...)
	for i := range n.Properties {
		if n.Properties[i].Name == name {
			n.Properties[i].Value = v
			return nil
		}
	}
	n.Properties = append(n.Properties, dt.Property{Name: name, Value: v})
	return nil
}
