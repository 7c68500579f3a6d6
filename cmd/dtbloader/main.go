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

// The dtbloader tool selects, patches and publishes the device tree of the machine it runs on.
package main

import (
	"os"

	"github.com/google/dtbloader/cmd"
	"github.com/google/logger"
	"golang.org/x/net/context"
)

func main() {
	defer logger.Init("dtbloader", false, false, os.Stderr).Close()
	root := cmd.MakeApp(context.Background(), &cmd.AppComponents{})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
