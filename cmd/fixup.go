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
	"errors"
	"fmt"

	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/loader"
	"github.com/google/dtbloader/protocol"
	"github.com/google/dtbloader/status"
	"github.com/spf13/cobra"
)

type fixupCommand struct {
	flags protocol.Flags
	size  int
	out   string
}

func makeFixupCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	c := &fixupCommand{}
	cmd := &cobra.Command{
		Use:   "fixup [flags] DTB",
		Short: "Patch a device tree file the way the firmware fixup protocol does",
		Long: `Patch a device tree file the way the firmware fixup protocol does

The file is passed to the fixup protocol in a buffer of --size bytes. When the protocol
reports that the buffer is too small, the call is repeated with the size it asked for.`,
		Args: cobra.ExactArgs(1),
		RunE: sessionRun(app, func(ctx context.Context, s *loader.Session, args []string) error {
			return c.run(ctx, app, s, args[0])
		}),
	}
	cmd.SetContext(ctx)
	cmd.Flags().AddGoFlag(fixupFlagsVar(&c.flags, "flags", protocol.ApplyFixups,
		"Comma-separated fixup protocol flags. Any of apply_fixups,reserve_memory."))
	cmd.Flags().IntVar(&c.size, "size", 0,
		"Size of the first buffer passed to the protocol. 0 is the size of the input file.")
	addOutFlag(cmd, &c.out)
	return cmd
}

func (c *fixupCommand) run(ctx context.Context, app *AppComponents, s *loader.Session, path string) error {
	blob, err := app.IO.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	size := c.size
	if size <= 0 {
		size = len(blob)
	}
	result, err := negotiate(ctx, s.Protocol, blob, size, c.flags)
	if err != nil {
		return err
	}
	w, done, err := app.IO.Create(c.out)
	if err != nil {
		return err
	}
	defer done()
	if _, err := w.Write(result); err != nil {
		return err
	}
	output.Debugf(ctx, "wrote %d bytes with flags %v", len(result), c.flags)
	return nil
}

// negotiate calls the fixup protocol with a buffer of size bytes holding blob, growing the
// buffer once if the protocol asks for more room.
func negotiate(ctx context.Context, p *protocol.Protocol, blob []byte, size int, flags protocol.Flags) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		buf := make([]byte, max(size, len(blob)))
		copy(buf, blob)
		err := p.Fixup(ctx, buf, &size, flags)
		var small *status.BufferTooSmallError
		if errors.As(err, &small) {
			output.Debugf(ctx, "fixup needs a %d byte buffer", size)
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf[:size], nil
	}
	return nil, fmt.Errorf("fixup protocol did not accept a %d byte buffer: %w", size, status.ErrBufferTooSmall)
}
