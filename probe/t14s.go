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

package probe

// The ThinkPad T14s Gen 6 DSDT declares
//
//	OperationRegion (MNVS, SystemMemory, 0xD6CF5018, 0x6000)
//
// and the firmware keeps the panel id in it. Offsets below follow the packed field layout.
const (
	T14sMNVSBase = 0xD6CF5018
	T14sMNVSSize = 0x6000

	t14sUnd1 = 0xf14
	t14sVedx = t14sUnd1 + 7
	t14sShdw = t14sVedx + 128
	t14sTpid = t14sShdw + 1
	t14sTpad = t14sTpid + 2
	t14sTdvi = t14sTpad + 1 // touchpad vid
	t14sTdpi = t14sTdvi + 2 // touchpad pid
	t14sTlvi = t14sTdpi + 2 // touchscreen vid
	t14sTlpi = t14sTlvi + 2 // touchscreen pid
	t14sEpao = t14sTlpi + 2
	t14sTlas = t14sEpao + 1
	t14sFadm = t14sTlas + 1
	t14sVpid = t14sFadm + 1 // panel id

	// T14sOLEDPanelID is the panel id of the OLED model. It uses a backlight type that is not
	// PMIC PWM.
	T14sOLEDPanelID = 4
)

// Layout checks against addresses seen in the DSDT. A mismatch overflows uint and fails to
// compile.
const (
	_ = uint(T14sMNVSBase + t14sUnd1 - 0xd6cf5f2c)
	_ = uint(0xd6cf5f2c - (T14sMNVSBase + t14sUnd1))
	_ = uint(T14sMNVSBase + t14sVedx - (0xd6cf5f2c + 7))
	_ = uint((0xd6cf5f2c + 7) - (T14sMNVSBase + t14sVedx))
	_ = uint(T14sMNVSBase + t14sShdw - (0xd6cf5fac + 7))
	_ = uint((0xd6cf5fac + 7) - (T14sMNVSBase + t14sShdw))
	_ = uint(T14sMNVSBase + t14sTpid - (0xd6cf5fac + 8))
	_ = uint((0xd6cf5fac + 8) - (T14sMNVSBase + t14sTpid))
	_ = uint(T14sMNVSBase + t14sTpad - (0xd6cf5fac + 10))
	_ = uint((0xd6cf5fac + 10) - (T14sMNVSBase + t14sTpad))
	_ = uint(T14sMNVSBase + t14sTdvi - (0xd6cf5fac + 11))
	_ = uint((0xd6cf5fac + 11) - (T14sMNVSBase + t14sTdvi))
	_ = uint(T14sMNVSBase + t14sTlpi - (0xd6cf5fbc + 1))
	_ = uint((0xd6cf5fbc + 1) - (T14sMNVSBase + t14sTlpi))
	_ = uint(T14sMNVSBase + t14sFadm - (0xd6cf5fbc + 5))
	_ = uint((0xd6cf5fbc + 5) - (T14sMNVSBase + t14sFadm))
	_ = uint(T14sMNVSSize - 1 - t14sVpid)
)

// T14sOLED detects the OLED panel variant of the ThinkPad T14s Gen 6.
var T14sOLED = PanelCheck{
	Name: "ThinkPad T14s Gen 6",
	Addr: T14sMNVSBase + t14sVpid,
	Want: T14sOLEDPanelID,
}
