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

//go:build !linux

package blockdev

import (
	"context"

	"github.com/google/dtbloader/status"
)

// Sysfs is unavailable on this platform.
type Sysfs struct {
	Root    string
	DevRoot string
}

// Devices returns status.ErrUnsupported.
func (*Sysfs) Devices(context.Context) ([]Device, error) {
	return nil, status.ErrUnsupported
}
