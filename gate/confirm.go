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

package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalConfirmer reads single key presses from a terminal in raw mode. Keys other than y and
// n are ignored.
type TerminalConfirmer struct {
	In  *os.File
	Out io.Writer
}

// Confirm prints prompt and waits for y or n.
func (c *TerminalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	fd := int(c.In.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return false, fmt.Errorf("could not put the terminal in raw mode: %v", err)
	}
	defer term.Restore(fd, state)
	// Raw mode disables output post-processing.
	fmt.Fprint(c.Out, strings.ReplaceAll(prompt, "\n", "\r\n"))
	var key [1]byte
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if _, err := c.In.Read(key[:]); err != nil {
			return false, err
		}
		switch key[0] {
		case 'y', 'Y':
			fmt.Fprint(c.Out, "y\r\n")
			return true, nil
		case 'n', 'N':
			fmt.Fprint(c.Out, "n\r\n")
			return false, nil
		}
	}
}

// ReaderConfirmer reads answers a line at a time, for input that is not a terminal. Running out
// of input counts as a rejection.
type ReaderConfirmer struct {
	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
}

// Confirm prints prompt and reads lines until one is a yes or a no.
func (c *ReaderConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.scanner == nil {
		c.scanner = bufio.NewScanner(c.In)
	}
	fmt.Fprint(c.Out, prompt)
	for c.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(c.scanner.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprint(c.Out, "Please answer y or n: ")
	}
	if err := c.scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return false, nil
}

// NewConfirmer returns a TerminalConfirmer when in is a terminal and a ReaderConfirmer otherwise.
func NewConfirmer(in *os.File, out io.Writer) Confirmer {
	if term.IsTerminal(int(in.Fd())) {
		return &TerminalConfirmer{In: in, Out: out}
	}
	return &ReaderConfirmer{In: in, Out: out}
}
