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

package loader

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/dtbloader/blockdev"
	"github.com/google/dtbloader/cmd/output"
	"github.com/google/dtbloader/efivars"
	"github.com/google/dtbloader/fdt"
	"github.com/google/dtbloader/fixup"
	"github.com/google/dtbloader/hwid"
	"github.com/google/dtbloader/protocol"
	"github.com/google/dtbloader/smbios"
	"github.com/google/dtbloader/status"
	"github.com/google/dtbloader/testing/fakedpp"
	"github.com/google/dtbloader/testing/fakevars"
	"github.com/google/dtbloader/testing/storage"
	"github.com/google/dtbloader/testing/testdtb"
	"github.com/google/dtbloader/ucs2"
)

const surfaceDTB = `qcom\x1e80100-microsoft-denali.dtb`

var (
	surfacePro11 = hwid.RawIdentity{
		hwid.Manufacturer:          "Microsoft Corporation",
		hwid.Family:                "Surface",
		hwid.ProductName:           "Microsoft Surface Pro, 11th Edition",
		hwid.ProductSku:            "Surface_Pro_11th_Edition_2076",
		hwid.BaseboardManufacturer: "Microsoft Corporation",
		hwid.BaseboardProduct:      "Microsoft Surface Pro, 11th Edition",
	}
	wlanMAC = [6]byte{0x00, 0x03, 0x7f, 0x12, 0x34, 0x56}
	btAddr  = [6]byte{0x00, 0x03, 0x7f, 0x65, 0x43, 0x21}
)

type answer struct {
	ok    bool
	calls int
}

func (a *answer) Confirm(context.Context, string) (bool, error) {
	a.calls++
	return a.ok, nil
}

type env struct {
	ctx     context.Context
	out     *bytes.Buffer
	vars    *fakevars.Vars
	media   *storage.Mock
	publish *storage.Mock
	confirm *answer
	session *Session
}

func newEnv(t *testing.T, raw hwid.RawIdentity) *env {
	t.Helper()
	e := &env{
		out:     &bytes.Buffer{},
		vars:    fakevars.New().SetSecureBoot(true),
		media:   storage.WithInitialContents(map[string][]byte{"qcom/x1e80100-microsoft-denali.dtb": testdtb.Blob(testdtb.Tree())}, "dtbloader/dtbs"),
		publish: &storage.Mock{},
		confirm: &answer{ok: true},
	}
	e.ctx = e.vars.Context(output.NewContext(context.Background(), &output.Options{Out: e.out, Err: e.out}))
	e.session = NewSession(&Config{
		Identity:  &smbios.Static{Raw: raw},
		Blocks:    blockdev.List{blockdev.NewPartition("disk0:2", "DPP", fakedpp.Provisioning(wlanMAC, btAddr))},
		Media:     e.media,
		Publisher: &Publisher{Client: e.publish, Bucket: "run", Object: "dtb"},
		Confirmer: e.confirm,
	})
	return e
}

func TestBoot(t *testing.T) {
	e := newEnv(t, surfacePro11)
	result, err := e.session.Boot(e.ctx)
	if err != nil {
		t.Fatalf("Boot() = %v", err)
	}
	if !strings.Contains(e.out.String(), "Detected device: Microsoft Corporation Microsoft Surface Pro, 11th Edition") {
		t.Errorf("output %q does not name the device", e.out.String())
	}
	if result.Profile != 3 || result.Path != "/dtbloader/dtbs/qcom/x1e80100-microsoft-denali.dtb" {
		t.Errorf("Boot() matched profile %d and loaded %q", result.Profile, result.Path)
	}
	published, ok := e.publish.Object("run", "dtb")
	if !ok || !bytes.Equal(published, result.DTB) {
		t.Fatal("the patched device tree was not published")
	}
	tree, err := fdt.Open(published)
	if err != nil {
		t.Fatal(err)
	}
	mac, _ := fdt.Property(tree.FindCompatible("qcom,wcn3990-wifi"), fixup.MACProperty)
	if !bytes.Equal(mac, wlanMAC[:]) {
		t.Errorf("published %s = % x, want % x", fixup.MACProperty, mac, wlanMAC)
	}
	sum := sha1.Sum(published)
	if got := e.vars.Payload(efivars.HashVariable, efivars.VendorGUID); !bytes.Equal(got, sum[:]) {
		t.Errorf("DtbHash = %x, want %x", got, sum)
	}
	name, err := ucs2.Decode(e.vars.Payload(efivars.NameVariable, efivars.VendorGUID))
	if err != nil || name != surfaceDTB {
		t.Errorf("DtbName = %q, %v, want %q", name, err, surfaceDTB)
	}
	if e.confirm.calls != 1 {
		t.Errorf("confirmation asked %d times, want 1", e.confirm.calls)
	}
}

func TestBootKeepsName(t *testing.T) {
	e := newEnv(t, surfacePro11)
	old, err := ucs2.EncodeZ(`qcom\other.dtb`)
	if err != nil {
		t.Fatal(err)
	}
	e.vars.AddVar(efivars.NameVariable, efivars.VendorGUID, efivars.Attributes, old)
	if _, err := e.session.Boot(e.ctx); err != nil {
		t.Fatal(err)
	}
	if got := e.vars.Payload(efivars.NameVariable, efivars.VendorGUID); !bytes.Equal(got, old) {
		t.Errorf("DtbName was replaced with %q", got)
	}
}

func TestBootUnsupported(t *testing.T) {
	e := newEnv(t, hwid.RawIdentity{hwid.Manufacturer: "Nobody"})
	if _, err := e.session.Boot(e.ctx); !errors.Is(err, protocol.ErrUnsupportedDevice) {
		t.Errorf("Boot() = %v, want %v", err, protocol.ErrUnsupportedDevice)
	}
	if !strings.Contains(e.out.String(), "Failed to detect this device") {
		t.Errorf("output %q does not report the failure", e.out.String())
	}
	if e.vars.Writes != 0 || e.publish.Writes != 0 {
		t.Error("Boot() wrote state for an unsupported device")
	}
}

func TestBootWithoutDTB(t *testing.T) {
	e := newEnv(t, surfacePro11)
	e.media.Objects = nil
	result, err := e.session.Boot(e.ctx)
	if err != nil {
		t.Fatalf("Boot() = %v, want nil", err)
	}
	if result.Device == nil || result.DTB != nil {
		t.Errorf("Boot() = %+v, want a device and no tree", result)
	}
	if e.publish.Writes != 0 {
		t.Error("Boot() published without a device tree")
	}
}

func TestBootDeclined(t *testing.T) {
	e := newEnv(t, surfacePro11)
	e.confirm.ok = false
	if _, err := e.session.Boot(e.ctx); !errors.Is(err, status.ErrAborted) {
		t.Errorf("Boot() = %v, want %v", err, status.ErrAborted)
	}
	if e.publish.Writes != 0 || e.vars.Writes != 0 {
		t.Error("declined Boot() persisted state")
	}
}

func TestBootFixupFailure(t *testing.T) {
	e := newEnv(t, surfacePro11)
	e.session.Engine.Provisioned.Open = openStore(blockdev.List{})
	if _, err := e.session.Boot(e.ctx); !errors.Is(err, status.ErrNotFound) {
		t.Errorf("Boot() = %v, want %v", err, status.ErrNotFound)
	}
	if !strings.Contains(e.out.String(), "Failed to fixup dtb") {
		t.Errorf("output %q does not report the failure", e.out.String())
	}
}

func TestBootRefusesOverwrite(t *testing.T) {
	e := newEnv(t, surfacePro11)
	e.publish.Add("run", "dtb", []byte("previous"))
	if _, err := e.session.Boot(e.ctx); !errors.Is(err, status.ErrAborted) {
		t.Errorf("Boot() = %v, want %v", err, status.ErrAborted)
	}
	ctx := output.NewContext(e.ctx, &output.Options{Out: e.out, Err: e.out, Overwrite: true})
	if _, err := e.session.Boot(ctx); err != nil {
		t.Errorf("Boot() with --overwrite = %v", err)
	}
}

func TestProtocolSharesResolution(t *testing.T) {
	e := newEnv(t, surfacePro11)
	if _, err := e.session.Boot(e.ctx); err != nil {
		t.Fatal(err)
	}
	blob := testdtb.Blob(testdtb.Minimal())
	buf := make([]byte, len(blob)+protocol.Slack)
	copy(buf, blob)
	size := len(buf)
	if err := e.session.Protocol.Fixup(e.ctx, buf, &size, protocol.ApplyFixups); err != nil {
		t.Fatalf("Fixup() = %v", err)
	}
	d, _ := e.session.Resolver.Resolved()
	if d == nil || d.DTB != surfaceDTB {
		t.Errorf("Resolved() = %v, want the Surface descriptor", d)
	}
}

func TestAcquireDTBOrder(t *testing.T) {
	ctx := context.Background()
	m := storage.WithInitialContents(map[string][]byte{"x1e80100-microsoft-denali.dtb": testdtb.Blob(testdtb.Minimal())}, "dtbs")
	dtb, err := AcquireDTB(ctx, m, surfaceDTB)
	if err != nil {
		t.Fatal(err)
	}
	if dtb.Path != "/dtbs/x1e80100-microsoft-denali.dtb" {
		t.Errorf("AcquireDTB() loaded %q", dtb.Path)
	}
	want := []string{
		"dtbloader/dtbs/qcom/x1e80100-microsoft-denali.dtb",
		"dtbloader/dtbs/x1e80100-microsoft-denali.dtb",
		"dtbs/qcom/x1e80100-microsoft-denali.dtb",
		"dtbs/x1e80100-microsoft-denali.dtb",
	}
	if strings.Join(m.Opened, ",") != strings.Join(want, ",") {
		t.Errorf("AcquireDTB() tried %v, want %v", m.Opened, want)
	}
}

func TestAcquireDTBSkipsUnreadable(t *testing.T) {
	m := storage.WithInitialContents(map[string][]byte{"qcom/x1e80100-microsoft-denali.dtb": testdtb.Blob(testdtb.Minimal())}, "dtbs")
	m.ReadErrs = map[string]error{
		"dtbloader/dtbs/qcom/x1e80100-microsoft-denali.dtb": os.ErrPermission,
		"dtbloader/dtbs/x1e80100-microsoft-denali.dtb":      errors.New("device error"),
	}
	dtb, err := AcquireDTB(context.Background(), m, surfaceDTB)
	if err != nil {
		t.Fatalf("AcquireDTB() = %v", err)
	}
	if dtb.Path != "/dtbs/qcom/x1e80100-microsoft-denali.dtb" {
		t.Errorf("AcquireDTB() loaded %q, want the first readable file", dtb.Path)
	}

	// An oversized file still ends the search.
	m.Add("dtbloader/dtbs", "x1e80100-microsoft-denali.dtb", make([]byte, MaxDTBSize+1))
	delete(m.ReadErrs, "dtbloader/dtbs/x1e80100-microsoft-denali.dtb")
	if _, err := AcquireDTB(context.Background(), m, surfaceDTB); !errors.Is(err, status.ErrBufferTooSmall) {
		t.Errorf("AcquireDTB() = %v, want %v", err, status.ErrBufferTooSmall)
	}
}

func TestAcquireDTBErrors(t *testing.T) {
	tcs := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "too big", data: make([]byte, MaxDTBSize+1), wantErr: status.ErrBufferTooSmall},
		{name: "bad header", data: make([]byte, 64), wantErr: status.ErrLoadError},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			m := storage.WithInitialContents(map[string][]byte{"test.dtb": tc.data}, "")
			if _, err := AcquireDTB(context.Background(), m, `qcom\test.dtb`); !errors.Is(err, tc.wantErr) {
				t.Errorf("AcquireDTB() = %v, want %v", err, tc.wantErr)
			}
		})
	}
	if _, err := AcquireDTB(context.Background(), &storage.Mock{}, "test.dtb"); !errors.Is(err, status.ErrNotFound) {
		t.Errorf("AcquireDTB() = %v, want %v", err, status.ErrNotFound)
	}
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher("")
	if p.Object != "dtb" {
		t.Errorf("NewPublisher(\"\").Object = %q, want %q", p.Object, "dtb")
	}
}

func TestSessionContext(t *testing.T) {
	if _, err := FromContext(context.Background()); !errors.Is(err, ErrNoContext) {
		t.Errorf("FromContext() = %v, want %v", err, ErrNoContext)
	}
	s := NewSession(&Config{SkipGate: true})
	got, err := FromContext(NewContext(context.Background(), s))
	if err != nil || got != s {
		t.Errorf("FromContext() = %v, %v, want the session", got, err)
	}
	if s.Gate != nil {
		t.Error("SkipGate left the gate enabled")
	}
}
