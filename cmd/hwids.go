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
	"strings"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/hwid"
	"github.com/google/dtbloader/loader"
	"github.com/spf13/cobra"
)

func makeHwidsCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hwids",
		Short: "Print the identity strings and hardware IDs of this machine",
		Long: `Print the identity strings and hardware IDs of this machine

The hardware IDs are printed with the identity fields each one hashes, in the same form
as fwupdtool hwids.`,
		Args: cobra.NoArgs,
		RunE: sessionRun(app, runHwids),
	}
	cmd.SetContext(ctx)
	return cmd
}

func runHwids(ctx context.Context, s *loader.Session, _ []string) error {
	id, err := s.Fingerprinter.Identity(ctx)
	if err != nil {
		return err
	}
	set, err := s.Fingerprinter.Fingerprints(ctx)
	if err != nil {
		return err
	}
	output.Infof(ctx, "Computer Information")
	output.Infof(ctx, "--------------------")
	for _, f := range hwid.Fields() {
		if v := id.Text(f); v != "" {
			output.Infof(ctx, "%v: %s", f, v)
		}
	}
	output.Infof(ctx, "")
	output.Infof(ctx, "Hardware IDs")
	output.Infof(ctx, "------------")
	for profile := 0; profile < hwid.NumProfiles; profile++ {
		fields := hwid.ProfileFields(profile)
		if fields == nil {
			continue
		}
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.String()
		}
		output.Infof(ctx, "%v   <- %s", set.ID(profile), strings.Join(names, " + "))
	}
	return nil
}
