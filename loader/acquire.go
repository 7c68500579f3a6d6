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

package loader

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/fdt"
	"github.com/google/dtbloader/status"
	"github.com/google/dtbloader/storage/ops"
	"github.com/google/dtbloader/storage/storagei"
)

// MaxDTBSize is the largest device tree file accepted.
const MaxDTBSize = 1 << 20

// Locations are the boot media directories searched for device tree files, in order.
var Locations = []string{"dtbloader/dtbs", "dtbs", ""}

// DTB is a device tree file read from boot media.
type DTB struct {
	// Path is the location the file was read from.
	Path string
	Data []byte
}

func basename(name string) string {
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		return name[i+1:]
	}
	return name
}

// AcquireDTB reads the device tree file called name, which may use '\' separators. Each of
// Locations is tried with the full name and then with its last path element, so that trees
// installed without their vendor directory are still found. Unreadable candidates are skipped;
// a candidate over MaxDTBSize ends the search.
func AcquireDTB(ctx context.Context, media storagei.Client, name string) (*DTB, error) {
	if media == nil {
		return nil, fmt.Errorf("%w: no boot media", status.ErrNotFound)
	}
	full := strings.ReplaceAll(name, `\`, "/")
	candidates := []string{full}
	if base := basename(full); base != full {
		candidates = append(candidates, base)
	}
	for _, loc := range Locations {
		for _, c := range candidates {
			data, err := ops.ReadFileLimit(ctx, media, loc, c, MaxDTBSize)
			if errors.Is(err, status.ErrNotFound) {
				continue
			}
			p := path.Join("/", loc, c)
			if errors.Is(err, status.ErrBufferTooSmall) {
				output.Errorf(ctx, "Could not load %s: %v", p, err)
				return nil, err
			}
			if err != nil {
				output.Debugf(ctx, "  Skipping %s: %v", p, err)
				continue
			}
			output.Debugf(ctx, "  Found %s", p)
			if _, err := fdt.CheckHeader(data); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", status.ErrLoadError, p, err)
			}
			return &DTB{Path: p, Data: data}, nil
		}
	}
	return nil, fmt.Errorf("%w: device tree %q is not on the boot media", status.ErrNotFound, name)
}
