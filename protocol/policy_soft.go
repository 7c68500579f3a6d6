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

//go:build dtbloader_soft_unsupported

package protocol

import "github.com/google/dtbloader/status"

// ErrUnsupportedDevice is returned when the running machine is not a supported device. Boot
// managers built against this policy treat it as a non-fatal result.
var ErrUnsupportedDevice = status.ErrAborted
