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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/dtbloader/blockdev"
	"github.com/google/dtbloader/config"
	"github.com/google/dtbloader/efivars"
	"github.com/google/dtbloader/gate"
	"github.com/google/dtbloader/hwid"
	"github.com/google/dtbloader/loader"
	"github.com/google/dtbloader/probe"
	"github.com/google/dtbloader/smbios"
	"github.com/google/dtbloader/storage/local"
	"github.com/spf13/cobra"
)

// DefaultESP is the default mount point of the boot media.
const DefaultESP = "/boot/efi"

// Environment locates the firmware interfaces and files of the machine dtbloader runs on, and
// provides a loader.Session for them to every command.
type Environment struct {
	ConfigPath string
	ESP        string
	DMI        string
	EFIVars    string
	DevMem     string
	BlockRoot  string
	DevRoot    string
	DiskImage  string
	Publish    string
	NoGate     bool
	SMBIOS     hwid.RawIdentity

	// Confirmer answers the integrity gate. Nil asks on standard input.
	Confirmer gate.Confirmer
}

// AddFlags adds the environment flags to cmd and its subcommands.
func (e *Environment) AddFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&e.ConfigPath, "config", "",
		"YAML file supplying defaults for the other environment flags.")
	pf.StringVar(&e.ESP, "esp", DefaultESP, "Mount point of the boot media holding device tree files.")
	pf.StringVar(&e.DMI, "dmi", smbios.DefaultDMIRoot, "Linux DMI sysfs directory.")
	pf.StringVar(&e.EFIVars, "efivars", efivars.DefaultRoot, "efivarfs mount point.")
	pf.StringVar(&e.DevMem, "devmem", probe.DefaultDevMem,
		"Physical memory device read by panel probes. Empty disables the probes.")
	pf.StringVar(&e.BlockRoot, "block_root", "", "sysfs block class directory searched for the DPP partition.")
	pf.StringVar(&e.DevRoot, "dev_root", "", "Directory of block device nodes.")
	pf.StringVar(&e.DiskImage, "disk_image", "",
		"Search this disk image for the DPP partition instead of the machine's block devices.")
	pf.StringVar(&e.Publish, "publish", loader.DefaultPublishPath, "File the patched device tree is written to.")
	pf.BoolVar(&e.NoGate, "no_gate", false, "Skip the secure boot integrity gate.")
	addSmbiosFlag(cmd, &e.SMBIOS)
}

// flagDefault sets a string flag from the configuration file unless it was given explicitly.
func flagDefault(cmd *cobra.Command, name, value string) error {
	if value == "" || cmd.Flags().Changed(name) {
		return nil
	}
	return cmd.Flags().Set(name, value)
}

func (e *Environment) applyConfig(cmd *cobra.Command, f *config.File) error {
	defaults := []struct{ name, value string }{
		{"esp", f.ESP},
		{"dmi", f.DMI},
		{"efivars", f.EFIVars},
		{"devmem", f.DevMem},
		{"block_root", f.BlockRoot},
		{"dev_root", f.DevRoot},
		{"publish", f.Publish},
	}
	for _, d := range defaults {
		if err := flagDefault(cmd, d.name, d.value); err != nil {
			return fmt.Errorf("configuration %s: %v", d.name, err)
		}
	}
	if !cmd.Flags().Changed("no_gate") && !f.GateEnabled() {
		e.NoGate = true
	}
	for name, v := range f.SMBIOS {
		field, err := hwid.ParseField(name)
		if err != nil {
			return fmt.Errorf("configuration smbios: %v", err)
		}
		if e.SMBIOS == nil {
			e.SMBIOS = hwid.RawIdentity{}
		}
		if _, ok := e.SMBIOS[field]; !ok {
			e.SMBIOS[field] = v
		}
	}
	return nil
}

// PersistentPreRunE merges the configuration file into the flags.
func (e *Environment) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	if e.ConfigPath == "" {
		return nil
	}
	f, err := config.Load(e.ConfigPath)
	if err != nil {
		return err
	}
	return e.applyConfig(cmd, f)
}

func (e *Environment) identity() hwid.Source {
	var src hwid.Source = &smbios.Sysfs{Root: e.DMI}
	if len(e.SMBIOS) != 0 {
		src = &smbios.Override{Base: src, Fields: e.SMBIOS}
	}
	return src
}

func (e *Environment) blocks() blockdev.Enumerator {
	if e.DiskImage != "" {
		return &blockdev.ImageFile{Path: e.DiskImage, BlockSize: blockdev.DefaultBlockSize}
	}
	return &blockdev.Sysfs{Root: e.BlockRoot, DevRoot: e.DevRoot}
}

func (e *Environment) memory() io.ReaderAt {
	if e.DevMem == "" {
		return nil
	}
	return probe.DevMemPath(e.DevMem)
}

// InitContext directs UEFI variable access to the efivarfs root and adds a loader.Session.
func (e *Environment) InitContext(ctx context.Context) (context.Context, error) {
	confirmer := e.Confirmer
	if confirmer == nil {
		confirmer = gate.NewConfirmer(os.Stdin, os.Stdout)
	}
	s := loader.NewSession(&loader.Config{
		Identity:  e.identity(),
		Board:     &smbios.Sysfs{Root: e.DMI},
		Memory:    e.memory(),
		Blocks:    e.blocks(),
		Media:     &local.StorageClient{Root: e.ESP},
		Publisher: loader.NewPublisher(e.Publish),
		Confirmer: confirmer,
		SkipGate:  e.NoGate,
	})
	ctx = (&efivars.FS{Root: e.EFIVars}).Context(ctx)
	return loader.NewContext(ctx, s), nil
}
