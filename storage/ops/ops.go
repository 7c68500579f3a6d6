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

// Package ops provides common operations on a storagei.Client.
package ops

import (
	"context"
	"fmt"
	"io"

	"github.com/google/dtbloader/status"
	"github.com/google/dtbloader/storage/storagei"
)

// WriteFile writes (over) contents of object `name` in `bucket` with `contents`. Creates the file
// if it doesn't already exist.
func WriteFile(ctx context.Context, s storagei.Client, bucket, name string, contents []byte) error {
	w, err := s.Writer(ctx, bucket, name)
	if err != nil {
		return status.IO(err)
	}
	closer := func() error {
		if err := w.Close(); err != nil {
			return status.IO(fmt.Errorf("could not close file %q: %w", name, err))
		}
		return nil
	}
	n, err := w.Write(contents)
	if n != len(contents) || err != nil {
		if err := closer(); err != nil {
			return err
		}
		if err == nil {
			err = io.ErrShortWrite
		}
		return status.IO(fmt.Errorf("could not write file %q: %w", name, err))
	}
	return closer()
}

// ReadFile returns the file's contents. A missing file is status.ErrNotFound.
func ReadFile(ctx context.Context, s storagei.Client, bucket, name string) ([]byte, error) {
	return ReadFileLimit(ctx, s, bucket, name, -1)
}

// ReadFileLimit is ReadFile for files of at most limit bytes. A larger file is
// status.ErrBufferTooSmall. A negative limit reads any size.
func ReadFileLimit(ctx context.Context, s storagei.Client, bucket, name string, limit int64) ([]byte, error) {
	reader, err := s.Reader(ctx, bucket, name)
	if s.IsNotExists(err) {
		return nil, fmt.Errorf("%w: file \"%s/%s\" does not exist", status.ErrNotFound, bucket, name)
	}
	if err != nil {
		return nil, status.IO(fmt.Errorf("could not read file %q: %w", name, err))
	}
	defer reader.Close()
	var r io.Reader = reader
	if limit >= 0 {
		r = io.LimitReader(reader, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, status.IO(fmt.Errorf("could not read file %q: %w", name, err))
	}
	if limit >= 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file %q is larger than %d bytes", status.ErrBufferTooSmall, name, limit)
	}
	return data, nil
}
