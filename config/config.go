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

// Package config reads the optional YAML file that supplies defaults for the environment flags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// File is the contents of a configuration file. Empty values leave the built-in defaults in
// place.
type File struct {
	// ESP is the mount point of the boot media holding device tree files.
	ESP string `yaml:"esp"`
	// DMI is the Linux DMI sysfs directory.
	DMI string `yaml:"dmi"`
	// EFIVars is the efivarfs mount point.
	EFIVars string `yaml:"efivars"`
	// DevMem is the physical memory device used by panel probes.
	DevMem string `yaml:"devmem"`
	// BlockRoot is the sysfs block class directory searched for the DPP partition.
	BlockRoot string `yaml:"block_root"`
	// DevRoot holds the block device nodes.
	DevRoot string `yaml:"dev_root"`
	// Publish is the file the patched device tree is written to.
	Publish string `yaml:"publish"`
	// SecureBootGate enables the integrity gate. Unset means enabled.
	SecureBootGate *bool `yaml:"secure_boot_gate"`
	// SMBIOS overrides identity fields by name, such as ProductName.
	SMBIOS map[string]string `yaml:"smbios"`
}

// Parse decodes a configuration. Unknown keys are errors.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.UnmarshalStrict(data, f); err != nil {
		return nil, fmt.Errorf("could not parse configuration: %v", err)
	}
	return f, nil
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read configuration: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return f, nil
}

// GateEnabled returns whether the integrity gate should run.
func (f *File) GateEnabled() bool {
	return f.SecureBootGate == nil || *f.SecureBootGate
}
