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

package cmd

import (
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/google/dtbloader/hwid"
	"github.com/google/dtbloader/protocol"
	"github.com/spf13/cobra"
)

var (
	// ErrFieldAlreadySet is returned from an smbiosFlag if the same field is given twice.
	ErrFieldAlreadySet = errors.New("identity field has already been set")
)

func addOutFlag(cmd *cobra.Command, f *string) {
	cmd.Flags().StringVar(f, "out", "-", "Path of the output file. - is standard output.")
}

func addBytesFormFlag(cmd *cobra.Command, f *string) {
	cmd.Flags().StringVar(f, "bytesform", "auto",
		"How binary output is rendered. One of bin|hex|guid|base64|auto. auto is base64 on a terminal and bin otherwise.")
}

// smbiosFlag collects Field=Value identity overrides.
type smbiosFlag struct {
	v *hwid.RawIdentity
}

func (s *smbiosFlag) String() string {
	if s.v == nil || len(*s.v) == 0 {
		return ""
	}
	var parts []string
	for f, v := range *s.v {
		parts = append(parts, fmt.Sprintf("%v=%s", f, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (s *smbiosFlag) Set(value string) error {
	if s.v == nil {
		return errors.New("smbios flag value destination cannot be nil")
	}
	name, v, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("--smbios must be Field=Value, got %q", value)
	}
	f, err := hwid.ParseField(name)
	if err != nil {
		return err
	}
	if *s.v == nil {
		*s.v = hwid.RawIdentity{}
	}
	if _, ok := (*s.v)[f]; ok {
		return fmt.Errorf("%w: %v", ErrFieldAlreadySet, f)
	}
	(*s.v)[f] = v
	return nil
}

func addSmbiosFlag(cmd *cobra.Command, f *hwid.RawIdentity) {
	cmd.PersistentFlags().AddGoFlag(&flag.Flag{
		Name:  "smbios",
		Value: &smbiosFlag{v: f},
		Usage: "Override an SMBIOS identity field, as Field=Value. Fields are " +
			fieldList() + ". May be repeated.",
		DefValue: "",
	})
}

func fieldList() string {
	var names []string
	for _, f := range hwid.Fields() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

// fixupFlags parses a comma-separated list of fixup protocol flags.
type fixupFlags struct {
	v *protocol.Flags
}

var fixupFlagNames = map[string]protocol.Flags{
	"apply_fixups":   protocol.ApplyFixups,
	"reserve_memory": protocol.ReserveMemory,
}

func (f *fixupFlags) String() string {
	if f.v == nil {
		return "<unset>"
	}
	var names []string
	for name, bit := range fixupFlagNames {
		if *f.v&bit != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func (f *fixupFlags) Set(value string) error {
	var flags protocol.Flags
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		bit, ok := fixupFlagNames[name]
		if !ok {
			return fmt.Errorf("unknown fixup flag %q. Must be apply_fixups or reserve_memory", name)
		}
		flags |= bit
	}
	*f.v = flags
	return nil
}

func fixupFlagsVar(v *protocol.Flags, name string, defaultValue protocol.Flags, usage string) *flag.Flag {
	*v = defaultValue
	f := &fixupFlags{v: v}
	return &flag.Flag{
		Name:     name,
		Value:    f,
		Usage:    usage,
		DefValue: f.String(),
	}
}
