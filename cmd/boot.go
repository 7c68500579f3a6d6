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

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/loader"
	"github.com/spf13/cobra"
)

func makeBootCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Load, patch, check and publish the device tree of this machine",
		Long: `Load, patch, check and publish the device tree of this machine

The device tree is searched for under dtbloader/dtbs, dtbs and the root of the boot media.
When secure boot is enforced, a device tree that differs from the one accepted on an earlier
boot must be confirmed on the console before it is published.`,
		Args: cobra.NoArgs,
		RunE: sessionRun(app, runBoot),
	}
	cmd.SetContext(ctx)
	return cmd
}

func runBoot(ctx context.Context, s *loader.Session, _ []string) error {
	result, err := s.Boot(ctx)
	if err != nil {
		return err
	}
	if result.DTB == nil {
		return nil
	}
	output.Infof(ctx, "Published %s (%d bytes)", result.Path, len(result.DTB))
	return nil
}
