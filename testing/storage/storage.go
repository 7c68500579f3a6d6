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

// Package storage provides a mock storagei.Client standing in for boot media and the
// publication directory.
package storage

import (
	"bytes"
	"golang.org/x/net/context"
	"io"
	"os"
	"path"
)

// Mock implements storagei.Client over objects held in memory.
type Mock struct {
	// Objects maps bucket to object name to contents.
	Objects map[string]map[string][]byte
	// ReadErrs maps "bucket/object" to an error Reader returns instead of the contents.
	ReadErrs map[string]error
	// WriteErr, if set, is returned by every Write.
	WriteErr error
	// Opened records the path of every Reader call in order, whether or not the object exists.
	Opened []string
	// Writes counts committed writers.
	Writes int
	// Return this error from all operations for simple error specification.
	err error
}

type nopCloser struct {
	io.Reader
}

func (n *nopCloser) Close() error { return nil }

// ObjectWriter is an io.WriteCloser that stores Content into its Mock on Close.
type ObjectWriter struct {
	M *Mock

	Bucket  string
	Object  string
	Content []byte
}

// Write appends b to the pending content, or returns the Mock's canned WriteErr.
func (w *ObjectWriter) Write(b []byte) (int, error) {
	if w.M.WriteErr != nil {
		return 0, w.M.WriteErr
	}
	w.Content = append(w.Content, b...)
	return len(b), nil
}

// Close commits the written content.
func (w *ObjectWriter) Close() error {
	w.M.put(w.Bucket, w.Object, w.Content)
	w.M.Writes++
	return nil
}

func (s *Mock) put(bucket, object string, data []byte) {
	if s.Objects == nil {
		s.Objects = make(map[string]map[string][]byte)
	}
	if s.Objects[bucket] == nil {
		s.Objects[bucket] = make(map[string][]byte)
	}
	s.Objects[bucket][object] = bytes.Clone(data)
}

// Reader returns the object's contents.
func (s *Mock) Reader(_ context.Context, bucket, object string) (io.ReadCloser, error) {
	s.Opened = append(s.Opened, path.Join(bucket, object))
	if s.err != nil {
		return nil, s.err
	}
	if err := s.ReadErrs[path.Join(bucket, object)]; err != nil {
		return nil, err
	}
	if data, ok := s.Objects[bucket][object]; ok {
		return &nopCloser{bytes.NewReader(data)}, nil
	}
	return nil, os.ErrNotExist
}

// Exists reports whether the object is present.
func (s *Mock) Exists(_ context.Context, bucket, object string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.Objects[bucket][object]
	return ok, nil
}

// Writer returns a writer that replaces the object when closed.
func (s *Mock) Writer(_ context.Context, bucket, object string) (io.WriteCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ObjectWriter{M: s, Bucket: bucket, Object: object}, nil
}

// IsNotExists returns whether an error returned from Mock represents the NotExists error.
func (s *Mock) IsNotExists(err error) bool {
	return os.IsNotExist(err)
}

// EnsureBucketExists creates an empty bucket.
func (s *Mock) EnsureBucketExists(_ context.Context, bucket string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.Objects[bucket]; !ok {
		if s.Objects == nil {
			s.Objects = make(map[string]map[string][]byte)
		}
		s.Objects[bucket] = make(map[string][]byte)
	}
	return nil
}

// Object returns the contents of an object.
func (s *Mock) Object(bucket, object string) ([]byte, bool) {
	data, ok := s.Objects[bucket][object]
	return data, ok
}

// WithInitialContents returns an initial Mock implementation with objects with the given contents
// all in the same bucket.
func WithInitialContents(initialContents map[string][]byte, bucket string) *Mock {
	m := &Mock{}
	m.EnsureBucketExists(context.Background(), bucket)
	for k, v := range initialContents {
		m.put(bucket, k, v)
	}
	return m
}

// Add stores an object and returns s.
func (s *Mock) Add(bucket, object string, data []byte) *Mock {
	s.put(bucket, object, data)
	return s
}

// WithError returns an initial Mock implementation that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{err: err}
}
