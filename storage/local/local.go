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

// Package local provides a storagei.Client on a local directory tree, such as a mounted EFI
// system partition.
package local

import (
	"errors"
	"fmt"
	"golang.org/x/net/context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/dtbloader/cmd/output"
)

const (
	dirPerm  os.FileMode = 0755
	filePerm os.FileMode = 0644
)

// StorageClient provides the storagei.Client interface on local disk. A bucket is a directory
// under Root in which object paths are resolved. Paths never escape Root, even through symbolic
// links on the boot media.
type StorageClient struct {
	Root string
}

func (s *StorageClient) localPath(bucket, object string) (string, error) {
	root := s.Root
	if root == "" {
		root = "."
	}
	p, err := securejoin.SecureJoin(root, filepath.Join(bucket, object))
	if err != nil {
		return "", fmt.Errorf("object %q in bucket %q evaluated to illegal path: %v", object, bucket, err)
	}
	return p, nil
}

// Reader returns an open ReadCloser object for reading the given object.
func (s *StorageClient) Reader(_ context.Context, bucket, object string) (io.ReadCloser, error) {
	p, err := s.localPath(bucket, object)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return f, nil
}

// Writer returns an open WriteCloser object for populating the given object. Missing
// directories are created.
func (s *StorageClient) Writer(ctx context.Context, bucket, object string) (io.WriteCloser, error) {
	p, err := s.localPath(bucket, object)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return nil, fmt.Errorf("could not prepare directory for object %s in bucket %s: %w", object, bucket, err)
	}
	w, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, err
	}
	output.Debugf(ctx, "opened writer for %s", p)
	return w, nil
}

// Exists returns whether a particular object exists in the given bucket, or an error.
func (s *StorageClient) Exists(_ context.Context, bucket, object string) (bool, error) {
	p, err := s.localPath(bucket, object)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(p)
	if s.IsNotExists(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !st.IsDir(), nil
}

// IsNotExists returns whether an error from StorageClient indicates the object in question does
// not exist.
func (s *StorageClient) IsNotExists(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// EnsureBucketExists creates the given bucket if it does not exist.
func (s *StorageClient) EnsureBucketExists(_ context.Context, bucket string) error {
	p, err := s.localPath(bucket, "")
	if err != nil {
		return err
	}
	return os.MkdirAll(p, dirPerm)
}
