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

package blockdev

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/google/dtbloader/cmd/output"
)

// sharedFile closes f once every device opened on it was closed.
type sharedFile struct {
	mu   sync.Mutex
	f    *os.File
	refs int
}

func (s *sharedFile) ref() io.Closer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs++
	return &fileRef{s: s}
}

func (s *sharedFile) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs--
	if s.refs > 0 {
		return nil
	}
	return s.f.Close()
}

type fileRef struct {
	once sync.Once
	s    *sharedFile
	err  error
}

func (r *fileRef) Close() error {
	r.once.Do(func() { r.err = r.s.release() })
	return r.err
}

// ImageFile enumerates a disk image file and its GPT partitions. The file is opened by every
// Devices call and closed with the last device returned.
type ImageFile struct {
	Path      string
	BlockSize int64
}

// Devices returns the whole image followed by its partitions.
func (im *ImageFile) Devices(ctx context.Context) ([]Device, error) {
	f, err := os.Open(im.Path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	shared := &sharedFile{f: f}
	disk := &section{SectionReader: io.NewSectionReader(f, 0, st.Size()), name: im.Path, closer: shared.ref()}
	parts, err := Partitions(ctx, disk, im.BlockSize, shared.ref)
	if err != nil {
		output.Debugf(ctx, "%v", err)
	}
	return append([]Device{disk}, parts...), nil
}
