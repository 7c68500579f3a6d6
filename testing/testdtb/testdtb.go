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

// Package testdtb provides device tree fixtures with the wireless nodes of Qualcomm laptops.
package testdtb

import (
	"strings"

	"github.com/google/dtbloader/fdt"
	"github.com/u-root/u-root/pkg/dt"
)

// PresetMAC is the local-mac-address already present on the qcom,wcnss-wlan node.
var PresetMAC = []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

func stringList(s ...string) []byte {
	return []byte(strings.Join(s, "\x00") + "\x00")
}

func node(name string, props []dt.Property, children ...*dt.Node) *dt.Node {
	return &dt.Node{Name: name, Properties: props, Children: children}
}

func compatible(s ...string) dt.Property {
	return dt.Property{Name: "compatible", Value: stringList(s...)}
}

// Tree returns a fresh tree with these wireless nodes, in depth-first order:
//
//	/soc@0/wifi@18800000   qcom,wcn3990-wifi, zeroed local-mac-address
//	/soc@0/wifi@a000000    qcom,wcnss-wlan, local-mac-address PresetMAC
//	/soc@0/pcie@1c08000/wifi@0  pci17cb,1103, no address property
//	/soc@0/bluetooth       qcom,wcn6855-bt, zeroed local-bd-address
//	/soc@0/bluetooth-2     qcom,wcn6855-bt, no address property
func Tree() *fdt.Tree {
	return fdt.New(node("", []dt.Property{
		compatible("qcom,x1e80100-crd", "qcom,x1e80100"),
		{Name: "#address-cells", Value: []byte{0, 0, 0, 2}},
		{Name: "#size-cells", Value: []byte{0, 0, 0, 2}},
	},
		node("chosen", nil),
		node("soc@0", []dt.Property{compatible("simple-bus")},
			node("wifi@18800000", []dt.Property{
				compatible("qcom,wcn3990-wifi"),
				{Name: "local-mac-address", Value: make([]byte, 6)},
			}),
			node("wifi@a000000", []dt.Property{
				compatible("qcom,wcnss-wlan"),
				{Name: "local-mac-address", Value: append([]byte(nil), PresetMAC...)},
			}),
			node("pcie@1c08000", []dt.Property{compatible("qcom,pcie-x1e80100")},
				node("wifi@0", []dt.Property{compatible("pci17cb,1103")}),
			),
			node("bluetooth", []dt.Property{
				compatible("qcom,wcn6855-bt"),
				{Name: "local-bd-address", Value: make([]byte, 6)},
			}),
			node("bluetooth-2", []dt.Property{compatible("qcom,wcn6855-bt")}),
		),
	))
}

// Minimal returns a tree with only a root compatible property.
func Minimal() *fdt.Tree {
	return fdt.New(node("", []dt.Property{compatible("qcom,sc7180")}))
}

// Blob returns the packed form of t.
func Blob(t *fdt.Tree) []byte {
	b, err := t.Pack()
	if err != nil {
		panic(err)
	}
	return b
}
