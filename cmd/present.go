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
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	efi "github.com/canonical/go-efilib"
	"golang.org/x/term"
)

// BytesForm is the form used to render binary data.
type BytesForm int

const (
	// BytesRaw writes data unchanged.
	BytesRaw BytesForm = iota
	// BytesHex writes data as a hex-encoded string.
	BytesHex
	// BytesHexGuidify writes data as a hex-encoded string unless it is 16 bytes long, in which
	// case it is rendered as an EFI GUID.
	BytesHexGuidify
	// BytesBase64 writes data as a base64-encoded string.
	BytesBase64
	// BytesAuto writes base64 to a terminal and raw binary otherwise.
	BytesAuto
)

// TerminalWriter is an io.Writer that can determine if it's a terminal or not.
type TerminalWriter interface {
	Write([]byte) (int, error)
	// IsTerminal returns true if the writer is a terminal.
	IsTerminal() bool
}

// NonterminalWriter wraps the io.Writer interface while also making IsTerminal() always return
// false.
type NonterminalWriter struct{ Writer io.Writer }

func (w NonterminalWriter) Write(p []byte) (int, error) { return w.Writer.Write(p) }

// IsTerminal returns false.
func (w NonterminalWriter) IsTerminal() bool { return false }

// OSFileWriter wraps the os.File interface while also making IsTerminal() return whether the file's
// encapsulated file descriptor is a TTY.
type OSFileWriter struct{ File *os.File }

func (w OSFileWriter) Write(p []byte) (int, error) { return w.File.Write(p) }

// IsTerminal returns whether the file's encapsulated file descriptor is a TTY.
func (w OSFileWriter) IsTerminal() bool { return term.IsTerminal(int(w.File.Fd())) }

func writeBase64(data []byte, w io.Writer) error {
	enc := base64.NewEncoder(base64.StdEncoding, w)
	if _, err := enc.Write(data); err != nil {
		return err
	}
	return enc.Close()
}

// WriteBytesForm writes data according to form.
func WriteBytesForm(data []byte, form BytesForm, w TerminalWriter) error {
	switch form {
	case BytesRaw:
		_, err := w.Write(data)
		return err
	case BytesHex:
		_, err := hex.NewEncoder(w).Write(data)
		return err
	case BytesHexGuidify:
		if len(data) != 16 {
			_, err := hex.NewEncoder(w).Write(data)
			return err
		}
		_, err := io.WriteString(w, efi.GUID(data).String())
		return err
	case BytesBase64:
		return writeBase64(data, w)
	case BytesAuto:
		if w.IsTerminal() {
			return writeBase64(data, w)
		}
		_, err := w.Write(data)
		return err
	}
	return fmt.Errorf("unknown bytes form %d", form)
}

// ParseBytesForm parses a BytesForm option name to the corresponding constant.
func ParseBytesForm(form string) (BytesForm, error) {
	switch form {
	case "bin":
		return BytesRaw, nil
	case "hex":
		return BytesHex, nil
	case "guid":
		return BytesHexGuidify, nil
	case "base64":
		return BytesBase64, nil
	case "auto":
		return BytesAuto, nil
	default:
		return BytesRaw, fmt.Errorf("unknown bytes form %q. Must be one of bin|hex|guid|base64|auto", form)
	}
}

// IO provides the file access of commands that read or write files named on the command line.
type IO interface {
	// Create creates or opens and truncates a file at the given path, or returns an error. The
	// writer comes with a cleanup function instead of being a WriteCloser to allow for the created
	// writer to not close if needed.
	Create(path string) (TerminalWriter, func(), error)
	// ReadFile reads the entire contents of a file at the given path, or returns an error.
	ReadFile(path string) ([]byte, error)
}

// OSIO implements the IO interface with the os library. The path "-" is standard output.
type OSIO struct{}

// Create truncates an existing file at the given path, or creates a new file. If successful,
// returns a writer to the file and a cleanup function for the writer. Otherwise returns an error.
func (OSIO) Create(path string) (TerminalWriter, func(), error) {
	if path == "-" {
		return OSFileWriter{File: os.Stdout}, func() {}, nil
	}
	w, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return OSFileWriter{File: w}, func() { w.Close() }, nil
}

// ReadFile reads the entire contents of a file at the given path, or returns an error.
func (OSIO) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }
