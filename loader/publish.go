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
	"fmt"
	"path/filepath"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/status"
	"github.com/google/dtbloader/storage/local"
	"github.com/google/dtbloader/storage/ops"
	"github.com/google/dtbloader/storage/storagei"
)

// DefaultPublishPath is where the patched tree is handed to the next boot stage.
const DefaultPublishPath = "/run/dtbloader/dtb"

// Publisher installs the patched device tree as the active configuration.
type Publisher struct {
	Client storagei.Client
	Bucket string
	Object string
}

// NewPublisher returns a Publisher writing to the local file p.
func NewPublisher(p string) *Publisher {
	if p == "" {
		p = DefaultPublishPath
	}
	dir, file := filepath.Split(filepath.Clean(p))
	return &Publisher{Client: &local.StorageClient{Root: dir}, Object: file}
}

// Publish writes blob. An existing tree is only replaced when overwriting is allowed.
func (p *Publisher) Publish(ctx context.Context, blob []byte) error {
	if err := p.Client.EnsureBucketExists(ctx, p.Bucket); err != nil {
		return status.IO(fmt.Errorf("could not create %q: %w", p.Bucket, err))
	}
	exists, err := p.Client.Exists(ctx, p.Bucket, p.Object)
	if err != nil {
		return status.IO(err)
	}
	if exists && !output.AllowOverwrite(ctx) {
		return fmt.Errorf("%w: a device tree was already published to %q", status.ErrAborted, p.Object)
	}
	if err := ops.WriteFile(ctx, p.Client, p.Bucket, p.Object, blob); err != nil {
		return err
	}
	output.Debugf(ctx, "published %d byte device tree to %s", len(blob), p.Object)
	return nil
}
