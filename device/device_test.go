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

package device

import (
	"context"
	"errors"
	"testing"

	efi "github.com/canonical/go-efilib"
	"github.com/google/dtbloader/hwid"
	"github.com/google/dtbloader/probe"
	"github.com/google/dtbloader/status"
)

var (
	surfacePro11 = hwid.RawIdentity{
		hwid.Manufacturer:          "Microsoft Corporation",
		hwid.Family:                "Surface",
		hwid.ProductName:           "Microsoft Surface Pro, 11th Edition",
		hwid.ProductSku:            "Surface_Pro_11th_Edition_2076",
		hwid.BaseboardManufacturer: "Microsoft Corporation",
		hwid.BaseboardProduct:      "Microsoft Surface Pro, 11th Edition",
	}
	miix630 = hwid.RawIdentity{
		hwid.Manufacturer:          "LENOVO",
		hwid.Family:                "Miix 630",
		hwid.ProductName:           "81F1",
		hwid.ProductSku:            "LENOVO_MT_81F1_BU_idea_FM_Miix 630",
		hwid.BaseboardManufacturer: "LENOVO",
		hwid.BaseboardProduct:      "LNVNB161216",
	}
	devkit = hwid.RawIdentity{
		hwid.Manufacturer: "Qualcomm",
		hwid.Family:       "SCP_HAMOA",
		hwid.ProductName:  "Snapdragon-Devkit",
		hwid.ProductSku:   "6",
	}
	latitude7455 = hwid.RawIdentity{
		hwid.Manufacturer:          "Dell Inc.",
		hwid.Family:                "Latitude",
		hwid.ProductName:           "Latitude 7455",
		hwid.BaseboardManufacturer: "Dell Inc.",
		hwid.BaseboardProduct:      "0FK7MX",
	}
	t14sGen6 = hwid.RawIdentity{
		hwid.Manufacturer: "LENOVO",
		hwid.Family:       "ThinkPad T14s Gen 6",
		hwid.ProductSku:   "LENOVO_MT_21N1_BU_Think_FM_ThinkPad T14s Gen 6",
	}
)

type staticSet struct {
	set   *hwid.Set
	err   error
	calls int
}

func (s *staticSet) Fingerprints(context.Context) (*hwid.Set, error) {
	s.calls++
	return s.set, s.err
}

func fingerprints(t testing.TB, raw hwid.RawIdentity) *staticSet {
	t.Helper()
	id, err := hwid.NewPlatformIdentity(raw)
	if err != nil {
		t.Fatal(err)
	}
	return &staticSet{set: hwid.ComputeAll(id)}
}

func contains(ids []efi.GUID, g efi.GUID) bool {
	for _, id := range ids {
		if id == g {
			return true
		}
	}
	return false
}

// Every hardware ID computed from a board's reference strings for the listed profiles must be
// registered on that board's descriptor.
func TestRegistryGoldenIDs(t *testing.T) {
	reg := Default()
	tcs := []struct {
		device   string
		raw      hwid.RawIdentity
		profiles []int
	}{
		{device: "Microsoft Corporation Microsoft Surface Pro, 11th Edition", raw: surfacePro11, profiles: []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 14}},
		{device: "LENOVO Miix 630", raw: miix630, profiles: []int{4, 5, 6, 7, 8, 9, 10, 11, 13, 14}},
		{device: "Qualcomm Snapdragon-Devkit", raw: devkit, profiles: []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 14}},
		{device: "Dell Inc. Latitude 7455", raw: latitude7455, profiles: []int{4, 5, 6, 7, 8, 9, 10, 11, 13, 14}},
		{device: "LENOVO ThinkPad T14s Gen 6 (OLED)", raw: t14sGen6, profiles: []int{5, 6, 7, 8, 9, 10, 11, 13, 14}},
		{device: "LENOVO ThinkPad T14s Gen 6 (IPS)", raw: t14sGen6, profiles: []int{5, 6, 7, 8, 9, 10, 11, 13, 14}},
	}
	for _, tc := range tcs {
		t.Run(tc.device, func(t *testing.T) {
			d := reg.Lookup(tc.device)
			if d == nil {
				t.Fatalf("Lookup(%q) = nil", tc.device)
			}
			set := fingerprints(t, tc.raw).set
			for _, p := range tc.profiles {
				if !contains(d.HWIDs, set[p]) {
					t.Errorf("%s: profile %d id %v is not registered", tc.device, p, hwid.ToUUID(set[p]))
				}
			}
		})
	}
}

func TestResolveShippedBoards(t *testing.T) {
	tcs := []struct {
		name        string
		raw         hwid.RawIdentity
		mem         *probe.Window
		want        string
		wantProfile int
	}{
		{name: "surface", raw: surfacePro11, want: "Microsoft Corporation Microsoft Surface Pro, 11th Edition", wantProfile: 3},
		{name: "miix", raw: miix630, want: "LENOVO Miix 630", wantProfile: 6},
		{name: "devkit", raw: devkit, want: "Qualcomm Snapdragon-Devkit", wantProfile: 3},
		{name: "latitude", raw: latitude7455, want: "Dell Inc. Latitude 7455", wantProfile: 6},
		{name: "t14s oled", raw: t14sGen6, mem: panel(probe.T14sOLEDPanelID), want: "LENOVO ThinkPad T14s Gen 6 (OLED)", wantProfile: 6},
		{name: "t14s ips", raw: t14sGen6, mem: panel(1), want: "LENOVO ThinkPad T14s Gen 6 (IPS)", wantProfile: 6},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			r := &Resolver{Fingerprints: fingerprints(t, tc.raw), Registry: Default()}
			if tc.mem != nil {
				r.Memory = tc.mem
			}
			got, err := r.Resolve(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if got == nil || got.Name != tc.want {
				t.Fatalf("Resolve() = %v, want %q", got, tc.want)
			}
			if _, p := r.Resolved(); p != tc.wantProfile {
				t.Errorf("matched profile %d, want %d", p, tc.wantProfile)
			}
		})
	}
}

func panel(id byte) *probe.Window {
	w := &probe.Window{Base: probe.T14sMNVSBase, Data: make([]byte, probe.T14sMNVSSize)}
	w.Data[probe.T14sOLED.Addr-probe.T14sMNVSBase] = id
	return w
}

func TestResolveT14sWithoutMemory(t *testing.T) {
	// Without physical memory access the panel probe fails and the IPS fallback applies.
	r := &Resolver{Fingerprints: fingerprints(t, t14sGen6), Registry: Default()}
	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "LENOVO ThinkPad T14s Gen 6 (IPS)" {
		t.Errorf("Resolve() = %v, want the IPS fallback", got)
	}
}

func TestSpecificityOrdering(t *testing.T) {
	set := fingerprints(t, miix630)
	weak := &Descriptor{Name: "weak", HWIDs: []efi.GUID{set.set[11]}}
	strong := &Descriptor{Name: "strong", HWIDs: []efi.GUID{set.set[3]}}
	r := &Resolver{Fingerprints: set, Registry: &Registry{Primary: []*Descriptor{weak, strong}}}
	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != strong {
		t.Errorf("Resolve() = %v, want the profile 3 descriptor", got)
	}
}

func TestFallbackAfterPrimaryForSameProfile(t *testing.T) {
	set := fingerprints(t, miix630)
	fallback := &Descriptor{Name: "fallback", HWIDs: []efi.GUID{set.set[3]}}
	primary := &Descriptor{Name: "primary", HWIDs: []efi.GUID{set.set[3]}}
	r := &Resolver{Fingerprints: set, Registry: NewRegistry([]*Descriptor{primary}, []*Descriptor{fallback})}
	if got, _ := r.Resolve(context.Background()); got != primary {
		t.Errorf("Resolve() = %v, want the primary descriptor", got)
	}
}

func TestPredicate(t *testing.T) {
	set := fingerprints(t, miix630)
	calls := 0
	rejected := &Descriptor{
		Name:  "rejected",
		HWIDs: []efi.GUID{set.set[3]},
		Match: Match{Kind: MatchPredicate, Predicate: func(context.Context) (bool, error) {
			calls++
			return false, nil
		}},
	}
	broken := &Descriptor{
		Name:  "broken",
		HWIDs: []efi.GUID{set.set[3]},
		Match: Match{Kind: MatchPredicate, Predicate: func(context.Context) (bool, error) {
			return true, errors.New("probe failed")
		}},
	}
	accepted := &Descriptor{Name: "accepted", HWIDs: []efi.GUID{set.set[6]}}
	r := &Resolver{Fingerprints: set, Registry: &Registry{Primary: []*Descriptor{rejected, broken, accepted}}}
	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != accepted {
		t.Errorf("Resolve() = %v, want %q", got, accepted.Name)
	}
	if calls != 1 {
		t.Errorf("predicate called %d times, want 1", calls)
	}
}

func TestResolveCaches(t *testing.T) {
	set := fingerprints(t, surfacePro11)
	r := &Resolver{Fingerprints: set, Registry: Default()}
	first, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// A later registry change must not alter the session's decision.
	r.Registry = &Registry{}
	second, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first != second || set.calls != 1 {
		t.Errorf("Resolve() = %v then %v with %d fingerprint reads, want the same descriptor and 1 read", first, second, set.calls)
	}
}

func TestResolveNoMatch(t *testing.T) {
	r := &Resolver{
		Fingerprints: fingerprints(t, hwid.RawIdentity{hwid.Manufacturer: "QEMU", hwid.ProductName: "Standard PC"}),
		Registry:     Default(),
	}
	got, err := r.Resolve(context.Background())
	if got != nil || err != nil {
		t.Errorf("Resolve() = %v, %v, want nil, nil", got, err)
	}
}

func TestResolveSourceFailure(t *testing.T) {
	r := &Resolver{Fingerprints: &staticSet{err: errors.New("no SMBIOS")}, Registry: Default()}
	if _, err := r.Resolve(context.Background()); !errors.Is(err, status.ErrIoError) {
		t.Errorf("Resolve() = %v, want %v", err, status.ErrIoError)
	}
}

func TestDTBPath(t *testing.T) {
	d := Default().Lookup("LENOVO Miix 630")
	if got, want := d.DTBPath(), "qcom/msm8998-lenovo-miix-630.dtb"; got != want {
		t.Errorf("DTBPath() = %q, want %q", got, want)
	}
}
