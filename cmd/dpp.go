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
	"fmt"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/dpp"
	"github.com/google/dtbloader/loader"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func makeDppCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dpp",
		Short: "Inspect the device provisioning partition",
	}
	cmd.SetContext(ctx)
	cmd.AddCommand(makeDppLsCmd(ctx, app), makeDppCatCmd(ctx, app))
	return cmd
}

func makeDppLsCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the blobs of the provisioning store",
		Args:  cobra.NoArgs,
		RunE: sessionRun(app, func(ctx context.Context, s *loader.Session, _ []string) (err error) {
			store, err := dpp.Locate(ctx, s.Blocks)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, store.Close()) }()
			entries, err := store.Entries(ctx)
			if err != nil {
				return err
			}
			output.Infof(ctx, "%s:", store.Device().Name())
			for _, e := range entries {
				output.Infof(ctx, "%-6s %-49s %8d %8d", e.Vendor, e.Name, e.DataLen, e.RegionLen)
			}
			return nil
		}),
	}
	cmd.SetContext(ctx)
	return cmd
}

type dppCatCommand struct {
	bytesForm string
	out       string
}

func makeDppCatCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	c := &dppCatCommand{}
	cmd := &cobra.Command{
		Use:   "cat [flags] NAME",
		Short: "Print the data of one provisioning blob",
		Args:  cobra.ExactArgs(1),
		RunE: sessionRun(app, func(ctx context.Context, s *loader.Session, args []string) error {
			return c.run(ctx, app, s, args[0])
		}),
	}
	cmd.SetContext(ctx)
	addBytesFormFlag(cmd, &c.bytesForm)
	addOutFlag(cmd, &c.out)
	return cmd
}

func (c *dppCatCommand) run(ctx context.Context, app *AppComponents, s *loader.Session, name string) (err error) {
	form, err := ParseBytesForm(c.bytesForm)
	if err != nil {
		return err
	}
	store, err := dpp.Locate(ctx, s.Blocks)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()
	data, err := store.ReadBlob(ctx, name)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", name, err)
	}
	w, done, err := app.IO.Create(c.out)
	if err != nil {
		return err
	}
	defer done()
	return WriteBytesForm(data, form, w)
}
