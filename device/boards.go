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
	efi "github.com/canonical/go-efilib"
	"github.com/google/dtbloader/probe"
)

var t14sGen6HWIDs = []efi.GUID{
	efi.MakeGUID(0xc81fee2f, 0xcf41, 0x5d5a, 0x8c7b, [...]uint8{0xaf, 0xd6, 0x58, 0x5b, 0x1d, 0x81}),
	efi.MakeGUID(0xa9b59fea, 0xe841, 0x508a, 0xa245, [...]uint8{0x3a, 0x2d, 0x8d, 0x28, 0x02, 0xde}),
	efi.MakeGUID(0x74593764, 0xb6b9, 0x58e9, 0xbedc, [...]uint8{0x93, 0xeb, 0xbb, 0x1e, 0xb0, 0x57}),
	efi.MakeGUID(0xe5d83424, 0x0ecb, 0x5632, 0xb7b1, [...]uint8{0x50, 0x0f, 0x04, 0xe8, 0x27, 0x25}),
	efi.MakeGUID(0x76032e78, 0x67a8, 0x5dab, 0x8512, [...]uint8{0x15, 0x7b, 0xfc, 0xfb, 0x8f, 0x75}),
	efi.MakeGUID(0xdd83478e, 0xe01b, 0x5631, 0xae74, [...]uint8{0x92, 0xae, 0x27, 0x5a, 0x9b, 0x4e}),
	efi.MakeGUID(0x791ecd9d, 0x1547, 0x58e6, 0xb72a, [...]uint8{0x5c, 0xe4, 0x17, 0xb7, 0x29, 0xdd}),
	efi.MakeGUID(0x8c602147, 0x5363, 0x5374, 0x859e, [...]uint8{0x8b, 0x7f, 0xe2, 0xd4, 0xd3, 0xce}),
	efi.MakeGUID(0x498d60ae, 0x9b1d, 0x5b67, 0x8abd, [...]uint8{0xaf, 0x57, 0x1b, 0xab, 0xfa, 0x94}),
	efi.MakeGUID(0xacbac5af, 0xaa6a, 0x5690, 0x88f3, [...]uint8{0xe9, 0x10, 0xf0, 0x4a, 0x7e, 0xad}),
	efi.MakeGUID(0x5180bc01, 0x5d18, 0x5870, 0xb955, [...]uint8{0x96, 0x9d, 0xa3, 0x8b, 0x26, 0x47}),
	efi.MakeGUID(0x431ff9e9, 0xcd92, 0x51c1, 0x8917, [...]uint8{0x46, 0xb0, 0xa0, 0xef, 0x14, 0x7c}),
	efi.MakeGUID(0xe093d715, 0x70f7, 0x51f4, 0xb6c8, [...]uint8{0xb4, 0xa7, 0xe3, 0x1d, 0xef, 0x85}),
	efi.MakeGUID(0xc124cecf, 0xe6dc, 0x5d35, 0xa320, [...]uint8{0x71, 0x29, 0x80, 0xcf, 0xb6, 0x8d}),
	efi.MakeGUID(0x6de5d951, 0xd755, 0x576b, 0xbd09, [...]uint8{0xc5, 0xcf, 0x66, 0xb2, 0x72, 0x34}),
}

// Default returns the registry of every supported machine.
func Default() *Registry {
	return &Registry{
		Primary: []*Descriptor{
			{
				Name:  "Acer Aspire 1",
				DTB:   `qcom\sc7180-acer-aspire1.dtb`,
				Fixup: FixupSyntheticMAC,
			},
			{
				Name: "Dell Inc. Latitude 7455",
				DTB:  `qcom\x1e80100-dell-latitude-7455.dtb`,
				HWIDs: []efi.GUID{
					efi.MakeGUID(0xb05fb751, 0x0fcd, 0x578a, 0x8167, [...]uint8{0x72, 0x40, 0xf5, 0x27, 0xbf, 0x8e}),
					efi.MakeGUID(0x8bbe868f, 0x51ec, 0x5147, 0x9f89, [...]uint8{0xaa, 0x74, 0xad, 0xc2, 0xab, 0x57}),
					efi.MakeGUID(0x4b6ff7fb, 0xb48e, 0x5a4b, 0x9cc0, [...]uint8{0x3c, 0xb2, 0xe3, 0xd9, 0x52, 0x85}),
					efi.MakeGUID(0x71aa7285, 0x85cc, 0x5981, 0x980c, [...]uint8{0x89, 0x97, 0xbb, 0x8f, 0x33, 0x5f}),
					efi.MakeGUID(0x366393b3, 0x317d, 0x50aa, 0x8b56, [...]uint8{0xd4, 0xc0, 0x41, 0xcc, 0x95, 0x16}),
					efi.MakeGUID(0x2b9277cd, 0x85b1, 0x51ee, 0x9a38, [...]uint8{0xd4, 0x77, 0x63, 0x25, 0x32, 0xda}),
					efi.MakeGUID(0x2fd2f214, 0xa724, 0x5a61, 0xa4b0, [...]uint8{0xb1, 0x43, 0x44, 0x4c, 0x55, 0xc9}),
					efi.MakeGUID(0x351c2902, 0x6e75, 0x5441, 0x9b90, [...]uint8{0x31, 0xfa, 0x56, 0x1f, 0x39, 0x55}),
					efi.MakeGUID(0x0ede04d5, 0xf7f4, 0x5738, 0x89c5, [...]uint8{0x47, 0x92, 0x43, 0x83, 0x9c, 0x0b}),
					efi.MakeGUID(0x4f73f73b, 0xe639, 0x5353, 0xbbf7, [...]uint8{0xd8, 0x51, 0xe4, 0x8f, 0x18, 0xfc}),
					efi.MakeGUID(0x47d034a3, 0x8b0c, 0x5a59, 0x8fbf, [...]uint8{0x61, 0x20, 0x4d, 0xcb, 0x2a, 0x27}),
					efi.MakeGUID(0x41b0b5d7, 0xad12, 0x5d86, 0x9a3d, [...]uint8{0x82, 0x6f, 0x9b, 0x20, 0xad, 0xcc}),
					efi.MakeGUID(0x5c163113, 0x9296, 0x5c8d, 0xa92d, [...]uint8{0xae, 0x04, 0xeb, 0x59, 0xa0, 0xf7}),
					efi.MakeGUID(0x5455944b, 0x1a7d, 0x5678, 0x9cae, [...]uint8{0x0f, 0xfd, 0xa6, 0xff, 0xa2, 0x56}),
					efi.MakeGUID(0x85d38fda, 0xfc0e, 0x5c6f, 0x808f, [...]uint8{0x07, 0x69, 0x84, 0xae, 0x79, 0x78}),
					efi.MakeGUID(0xad4ce233, 0xb03c, 0x5b5d, 0xbf42, [...]uint8{0xa4, 0x4b, 0xe5, 0xb7, 0xee, 0x32}),
					efi.MakeGUID(0xfb7493ec, 0x9634, 0x5c5a, 0x9f26, [...]uint8{0x69, 0xcb, 0xf9, 0xb9, 0x24, 0x60}),
					efi.MakeGUID(0x36cb5c6e, 0xfb91, 0x55e9, 0x8077, [...]uint8{0xe0, 0x04, 0xf2, 0xb1, 0xdd, 0xad}),
				},
			},
			{
				Name: "LENOVO Miix 630",
				DTB:  `qcom\msm8998-lenovo-miix-630.dtb`,
				HWIDs: []efi.GUID{
					efi.MakeGUID(0xc4c9a6be, 0x5383, 0x5de7, 0xaf35, [...]uint8{0xc2, 0xde, 0x50, 0x5e, 0xde, 0xc8}),
					efi.MakeGUID(0x14f581d2, 0xd059, 0x5cb2, 0x9f8b, [...]uint8{0x56, 0xd8, 0xbe, 0x79, 0x32, 0xc9}),
					efi.MakeGUID(0xa51054fb, 0x5eef, 0x594a, 0xa5a0, [...]uint8{0xcd, 0x87, 0x63, 0x2d, 0x0a, 0xea}),
					efi.MakeGUID(0x307ab358, 0xed84, 0x57fe, 0xbf05, [...]uint8{0xe9, 0x19, 0x5a, 0x28, 0x19, 0x8d}),
					efi.MakeGUID(0x7e613574, 0x5445, 0x5797, 0x9567, [...]uint8{0x2d, 0x0e, 0xd8, 0x6e, 0x6f, 0xfa}),
					efi.MakeGUID(0xb0f4463c, 0xf851, 0x5ec3, 0xb031, [...]uint8{0x2c, 0xcb, 0x87, 0x3a, 0x60, 0x9a}),
					efi.MakeGUID(0x08b75d1f, 0x6643, 0x52a1, 0x9bdd, [...]uint8{0x07, 0x10, 0x52, 0x86, 0x0b, 0x33}),
					efi.MakeGUID(0xdacf4a59, 0x8e87, 0x55c5, 0x8b93, [...]uint8{0x69, 0x12, 0xde, 0xd6, 0xbf, 0x7f}),
					efi.MakeGUID(0xd0a8deb1, 0x4cb5, 0x50cd, 0xbdda, [...]uint8{0x59, 0x5c, 0xfc, 0x13, 0x23, 0x0c}),
					efi.MakeGUID(0x71d86d4d, 0x02f8, 0x5566, 0xa7a1, [...]uint8{0x52, 0x9c, 0xef, 0x18, 0x4b, 0x7e}),
					efi.MakeGUID(0x6de5d951, 0xd755, 0x576b, 0xbd09, [...]uint8{0xc5, 0xcf, 0x66, 0xb2, 0x72, 0x34}),
					efi.MakeGUID(0x34df58d6, 0xb605, 0x50aa, 0x9313, [...]uint8{0x9b, 0x34, 0xf5, 0xc4, 0xb6, 0xfc}),
					efi.MakeGUID(0xe0a96696, 0xf0a6, 0x5466, 0xa6db, [...]uint8{0x20, 0x7f, 0xbe, 0x8b, 0xae, 0x3c}),
				},
				Fixup: FixupSyntheticMAC,
			},
			{
				Name:  "LENOVO ThinkPad T14s Gen 6 (OLED)",
				DTB:   `qcom\x1e78100-lenovo-thinkpad-t14s-oled.dtb`,
				HWIDs: t14sGen6HWIDs,
				Match: Match{Kind: MatchPanelProbe, Panel: probe.T14sOLED},
			},
			{
				Name: "Microsoft Corporation Microsoft Surface Pro, 11th Edition",
				DTB:  `qcom\x1e80100-microsoft-denali.dtb`,
				HWIDs: []efi.GUID{
					efi.MakeGUID(0x66f9d954, 0x5c66, 0x5577, 0xb3e4, [...]uint8{0xe3, 0xf1, 0x4f, 0x87, 0xd2, 0xff}),
					efi.MakeGUID(0x5a384f15, 0x464d, 0x5da8, 0x9311, [...]uint8{0xa2, 0xc0, 0x21, 0x75, 0x9a, 0xfc}),
					efi.MakeGUID(0x14b96570, 0x4bc4, 0x541a, 0x9aef, [...]uint8{0x1b, 0x7e, 0x2b, 0x61, 0xd7, 0xcd}),
					efi.MakeGUID(0xaca467c0, 0x5fc2, 0x59ad, 0x8ed5, [...]uint8{0x1b, 0x7a, 0x09, 0x88, 0xd1, 0x1c}),
					efi.MakeGUID(0x95971fb3, 0xd478, 0x591f, 0x9ea3, [...]uint8{0xeb, 0x0a, 0xf0, 0xd1, 0xdf, 0xb5}),
					efi.MakeGUID(0xc9c14db9, 0x2b61, 0x597a, 0xa4ba, [...]uint8{0x84, 0x39, 0x7f, 0xe7, 0x5f, 0x63}),
					efi.MakeGUID(0x7cef06f5, 0xe7e6, 0x56d7, 0xb123, [...]uint8{0xa6, 0xd6, 0x40, 0xa5, 0xd3, 0x02}),
					efi.MakeGUID(0x48b86a5e, 0x1955, 0x5799, 0x9577, [...]uint8{0x15, 0x0f, 0x9e, 0x1a, 0x69, 0xe4}),
					efi.MakeGUID(0x06128fee, 0x87dc, 0x50f6, 0x8a3f, [...]uint8{0x97, 0xcd, 0x9a, 0x6d, 0x8b, 0xf6}),
					efi.MakeGUID(0x84b2e1d1, 0xe695, 0x5f41, 0x8c41, [...]uint8{0xcf, 0x1f, 0x05, 0x9c, 0x61, 0x6a}),
					efi.MakeGUID(0x16a47337, 0x1f8b, 0x5bd3, 0xb3bd, [...]uint8{0x8e, 0x50, 0xb3, 0x1c, 0xb1, 0xc9}),
					efi.MakeGUID(0xca2e5189, 0x1d32, 0x509f, 0x88a0, [...]uint8{0xd4, 0xeb, 0xcc, 0x72, 0x18, 0x99}),
					efi.MakeGUID(0xaca387a9, 0x183e, 0x5da9, 0x8f9d, [...]uint8{0xf4, 0x60, 0xc3, 0xf5, 0x0f, 0x54}),
					efi.MakeGUID(0xfdef4ae0, 0x6bfb, 0x5706, 0x8aae, [...]uint8{0xa5, 0x65, 0x63, 0x95, 0x05, 0xf5}),
					efi.MakeGUID(0xcc0aea32, 0xad2c, 0x5013, 0x8bed, [...]uint8{0xce, 0xde, 0x6b, 0xe8, 0xc9, 0xf4}),
					efi.MakeGUID(0x01bf1e61, 0xd2e0, 0x518b, 0xbb46, [...]uint8{0xeb, 0x4d, 0x1f, 0x2b, 0x1a, 0xf1}),
					efi.MakeGUID(0x584a5084, 0x15f2, 0x5d20, 0x917b, [...]uint8{0x57, 0xf2, 0x99, 0xe6, 0x1f, 0x7e}),
					efi.MakeGUID(0x9914cecc, 0xaab7, 0x570e, 0x8fce, [...]uint8{0xe8, 0x60, 0x09, 0xea, 0x6b, 0xbb}),
				},
				Fixup: FixupProvisionedMAC,
			},
			{
				Name: "Qualcomm Snapdragon-Devkit",
				DTB:  `qcom\x1e001de-devkit.dtb`,
				HWIDs: []efi.GUID{
					efi.MakeGUID(0xbaa7a649, 0x12d8, 0x56c7, 0x93c5, [...]uint8{0xa4, 0xe1, 0x0f, 0x48, 0x52, 0xbe}),
					efi.MakeGUID(0xc8e75ab8, 0x555c, 0x5952, 0xa3e3, [...]uint8{0x5b, 0x60, 0x7b, 0xea, 0x03, 0x1d}),
					efi.MakeGUID(0x4bb05d50, 0x6c4f, 0x525d, 0xa9ec, [...]uint8{0x89, 0x24, 0xaf, 0xd6, 0xed, 0xea}),
					efi.MakeGUID(0x830bd4a2, 0x2498, 0x55cf, 0xb561, [...]uint8{0x48, 0xf7, 0xdc, 0x5f, 0x48, 0x20}),
					efi.MakeGUID(0xb36a40fa, 0x4640, 0x5b1b, 0x8fa1, [...]uint8{0x6d, 0xbd, 0xe1, 0x03, 0xc8, 0x0d}),
					efi.MakeGUID(0x0d601876, 0x0ac6, 0x533e, 0x8386, [...]uint8{0x3a, 0x58, 0x20, 0x3d, 0x8c, 0x33}),
					efi.MakeGUID(0xf37dc44b, 0x0be4, 0x5a70, 0x86bd, [...]uint8{0x81, 0xf3, 0xda, 0xcf, 0xf2, 0xe9}),
					efi.MakeGUID(0x9cba20d0, 0x17ad, 0x559f, 0x94cd, [...]uint8{0xcf, 0xcb, 0xbf, 0x5f, 0x71, 0xf5}),
					efi.MakeGUID(0xd86bea02, 0x5d71, 0x5ee5, 0x98dc, [...]uint8{0x4f, 0x74, 0xd5, 0x77, 0x7d, 0xde}),
				},
			},
		},
		Fallback: []*Descriptor{
			{
				Name:  "LENOVO ThinkPad T14s Gen 6 (IPS)",
				DTB:   `qcom\x1e78100-lenovo-thinkpad-t14s.dtb`,
				HWIDs: t14sGen6HWIDs,
			},
		},
	}
}
