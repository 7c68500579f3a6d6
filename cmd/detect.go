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

func makeDetectCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the supported device this machine was detected as",
		Args:  cobra.NoArgs,
		RunE:  sessionRun(app, runDetect),
	}
	cmd.SetContext(ctx)
	return cmd
}

func runDetect(ctx context.Context, s *loader.Session, _ []string) error {
	d, err := s.Device(ctx)
	if err != nil {
		return err
	}
	_, profile := s.Resolver.Resolved()
	set, err := s.Fingerprinter.Fingerprints(ctx)
	if err != nil {
		return err
	}
	output.Infof(ctx, "Detected device: %s", d.Name)
	output.Infof(ctx, "Matched: %v", set.ID(profile))
	output.Infof(ctx, "Device tree: %s", d.DTBPath())
	output.Infof(ctx, "Fixup: %v", d.Fixup)
	return nil
}
