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

package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenRead(t *testing.T) {
	ctx := context.Background()
	s := &StorageClient{Root: t.TempDir()}
	w, err := s.Writer(ctx, "dtbloader/dtbs", "qcom/x1e80100-crd.dtb")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("dtb")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	ok, err := s.Exists(ctx, "dtbloader/dtbs", "qcom/x1e80100-crd.dtb")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v, want true, nil", ok, err)
	}
	r, err := s.Reader(ctx, "dtbloader/dtbs", "qcom/x1e80100-crd.dtb")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "dtb" {
		t.Errorf("read %q, want %q", got, "dtb")
	}
}

func TestReaderMissing(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "dtbs"), 0755); err != nil {
		t.Fatal(err)
	}
	s := &StorageClient{Root: root}
	for _, object := range []string{"missing.dtb", ""} {
		if _, err := s.Reader(ctx, "dtbs", object); !s.IsNotExists(err) {
			t.Errorf("Reader(%q) = %v, want a not-exist error", object, err)
		}
		if ok, err := s.Exists(ctx, "dtbs", object); ok || err != nil {
			t.Errorf("Exists(%q) = %v, %v, want false, nil", object, ok, err)
		}
	}
}

func TestPathsStayUnderRoot(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	root := filepath.Join(parent, "esp")
	if err := os.Mkdir(root, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parent, "secret"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("../secret", filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}
	s := &StorageClient{Root: root}
	for _, object := range []string{"../secret", "link"} {
		if _, err := s.Reader(ctx, "", object); !s.IsNotExists(err) {
			t.Errorf("Reader(%q) = %v, want a not-exist error", object, err)
		}
	}
}

func TestEnsureBucketExists(t *testing.T) {
	root := t.TempDir()
	s := &StorageClient{Root: root}
	if err := s.EnsureBucketExists(context.Background(), "run/dtbloader"); err != nil {
		t.Fatal(err)
	}
	if st, err := os.Stat(filepath.Join(root, "run/dtbloader")); err != nil || !st.IsDir() {
		t.Errorf("bucket directory missing: %v", err)
	}
}
