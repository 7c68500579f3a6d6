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

package probe

import (
	"errors"
	"runtime"
)

// DefaultDevMem is empty where physical memory access is not supported.
const DefaultDevMem = ""

// DevMem is unavailable on this platform.
type DevMem struct{}

// OpenDevMem always fails on this platform.
func OpenDevMem(string) (*DevMem, error) {
	return nil, errors.New("physical memory access is not supported on " + runtime.GOOS)
}

// ReadAt always fails on this platform.
func (*DevMem) ReadAt([]byte, int64) (int, error) { return 0, ErrNoMemory }

// Close does nothing.
func (*DevMem) Close() error { return nil }
