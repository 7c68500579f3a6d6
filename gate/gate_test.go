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
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"strings"
	"testing"

	"github.com/google/dtbloader/efivars"
	"github.com/google/dtbloader/status"
	"github.com/google/dtbloader/testing/fakevars"
)

type scripted struct {
	answers []bool
	err     error
	prompts []string
}

func (s *scripted) Confirm(_ context.Context, prompt string) (bool, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return false, s.err
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func storedHash(vars *fakevars.Vars) []byte {
	return vars.Payload(efivars.HashVariable, efivars.VendorGUID)
}

func TestCheckInactive(t *testing.T) {
	for _, vars := range []*fakevars.Vars{
		fakevars.New(),
		fakevars.New().SetSecureBoot(false),
		fakevars.New().SetSecureBoot(true).SetSetupMode(true),
	} {
		c := &scripted{}
		g := &Gate{Vars: efivars.State{}, Confirmer: c}
		if err := g.Check(vars.Context(context.Background()), []byte("dtb")); err != nil {
			t.Errorf("Check() = %v, want nil", err)
		}
		if len(c.prompts) != 0 || vars.Writes != 0 {
			t.Errorf("inactive gate prompted %d times and wrote %d variables", len(c.prompts), vars.Writes)
		}
	}
}

func TestCheckFirstUseThenRepeat(t *testing.T) {
	vars := fakevars.New().SetSecureBoot(true)
	ctx := vars.Context(context.Background())
	c := &scripted{answers: []bool{true}}
	g := &Gate{Vars: efivars.State{}, Confirmer: c}
	blob := []byte("patched device tree")

	if err := g.Check(ctx, blob); err != nil {
		t.Fatalf("first Check() = %v", err)
	}
	sum := sha1.Sum(blob)
	if got := storedHash(vars); !bytes.Equal(got, sum[:]) {
		t.Errorf("stored hash = %x, want %x", got, sum)
	}
	if err := g.Check(ctx, blob); err != nil {
		t.Fatalf("second Check() = %v", err)
	}
	if len(c.prompts) != 1 {
		t.Errorf("prompted %d times, want 1", len(c.prompts))
	}
	if !strings.Contains(c.prompts[0], "No device tree has been accepted") {
		t.Errorf("first-use prompt = %q", c.prompts[0])
	}
}

func TestCheckChangedDeclined(t *testing.T) {
	old := sha1.Sum([]byte("old"))
	vars := fakevars.New().SetSecureBoot(true).AddVar(efivars.HashVariable, efivars.VendorGUID, efivars.Attributes, old[:])
	c := &scripted{answers: []bool{false}}
	g := &Gate{Vars: efivars.State{}, Confirmer: c}
	if err := g.Check(vars.Context(context.Background()), []byte("new")); !errors.Is(err, status.ErrAborted) {
		t.Errorf("Check() = %v, want %v", err, status.ErrAborted)
	}
	if got := storedHash(vars); !bytes.Equal(got, old[:]) {
		t.Errorf("declined Check() replaced the stored hash with %x", got)
	}
	if !strings.Contains(c.prompts[0], "has changed") {
		t.Errorf("prompt = %q, want a change notice", c.prompts[0])
	}
}

func TestCheckErrors(t *testing.T) {
	vars := fakevars.New().SetSecureBoot(true)
	ctx := vars.Context(context.Background())
	boom := errors.New("console gone")
	if err := (&Gate{Vars: efivars.State{}, Confirmer: &scripted{err: boom}}).Check(ctx, nil); !errors.Is(err, boom) {
		t.Errorf("Check() = %v, want %v", err, boom)
	}
	if err := (&Gate{Vars: efivars.State{}}).Check(ctx, nil); !errors.Is(err, status.ErrAborted) {
		t.Errorf("Check() without a confirmer = %v, want %v", err, status.ErrAborted)
	}
	if storedHash(vars) != nil {
		t.Error("failed checks stored a hash")
	}
}

func TestReaderConfirmer(t *testing.T) {
	tcs := []struct {
		input string
		want  bool
	}{
		{input: "maybe\nY\n", want: true},
		{input: " no \n", want: false},
		{input: "", want: false},
	}
	for _, tc := range tcs {
		var out bytes.Buffer
		c := &ReaderConfirmer{In: strings.NewReader(tc.input), Out: &out}
		got, err := c.Confirm(context.Background(), "Boot? ")
		if err != nil {
			t.Fatalf("Confirm(%q) = %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("Confirm(%q) = %v, want %v", tc.input, got, tc.want)
		}
		if !strings.HasPrefix(out.String(), "Boot? ") {
			t.Errorf("Confirm(%q) wrote %q, want the prompt first", tc.input, out.String())
		}
	}
}
