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

// Package status defines the error kinds shared by every dtbloader component. The kinds mirror
// the firmware status codes that callers of the device-tree fixup protocol expect.
package status

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested file, partition, or blob is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidParameter is returned for malformed headers, bad flags, or bad arguments.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrBufferTooSmall is returned when a caller-supplied buffer cannot hold the result.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrUnsupported is returned when no device matched or a format is not understood.
	ErrUnsupported = errors.New("unsupported")
	// ErrLoadError is returned when a device tree cannot be parsed or packed.
	ErrLoadError = errors.New("load error")
	// ErrIoError is returned when the underlying storage or firmware table access fails.
	ErrIoError = errors.New("device error")
	// ErrAborted is returned when an operation was deliberately stopped.
	ErrAborted = errors.New("aborted")
)

var names = []struct {
	err  error
	name string
}{
	{ErrNotFound, "NotFound"},
	{ErrInvalidParameter, "InvalidParameter"},
	{ErrBufferTooSmall, "BufferTooSmall"},
	{ErrUnsupported, "Unsupported"},
	{ErrLoadError, "LoadError"},
	{ErrIoError, "IoError"},
	{ErrAborted, "Aborted"},
}

// BufferTooSmallError reports the buffer size needed to complete the operation.
type BufferTooSmallError struct {
	Required int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("%v: need %d bytes", ErrBufferTooSmall, e.Required)
}

// Is makes errors.Is(err, ErrBufferTooSmall) succeed.
func (e *BufferTooSmallError) Is(target error) bool { return target == ErrBufferTooSmall }

// Name returns the symbolic kind of err, or "Success" for nil and "Unknown" for errors that wrap
// none of the kinds in this package.
func Name(err error) string {
	if err == nil {
		return "Success"
	}
	for _, n := range names {
		if errors.Is(err, n.err) {
			return n.name
		}
	}
	return "Unknown"
}

// IO wraps err as an ErrIoError unless it already carries one of the kinds in this package.
func IO(err error) error {
	if err == nil || Name(err) != "Unknown" {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIoError, err)
}
