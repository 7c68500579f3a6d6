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
	"golang.org/x/net/context"

	"github.com/google/dtbloader/cmd/output"
	"github.com/spf13/cobra"
)

// makeRootCmd creates the dtbloader entrypoint.
func makeRootCmd(ctx0 context.Context, app *AppComponents) *cobra.Command {
	flags := &output.Options{}
	ctx := output.NewContext(ctx0, flags)
	cmd := &cobra.Command{
		Use: "dtbloader",
		Long: `Device tree loader for Arm laptops

This tool identifies the machine from its SMBIOS strings, loads the matching device tree
from the boot media, patches board-specific network addresses into it, and publishes it
for the next boot stage.
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(cmd); err != nil {
				return err
			}
			return Compose(app.Global, app.Environment).PersistentPreRunE(cmd, args)
		},
	}
	cmd.SetContext(ctx)
	Compose(app.Global, app.Environment).AddFlags(cmd)
	flags.AddFlags(cmd)
	return cmd
}

// RunFn is the signature of cobra's RunE.
type RunFn func(*cobra.Command, []string) error
