// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package config locates and loads the optional ~/.bsedrc.yaml that
// supplies defaults for flags the user would otherwise repeat on every
// invocation (filler byte, pager command, log level).
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile returns ~/.bsedrc.yaml, falling back to ./.bsedrc.yaml
// if the home directory cannot be determined.
func DefaultConfigFile() string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, ".bsedrc.yaml")
}

// Load reads path (if it exists) into viper under the "global" key.
// A missing file is not an error; a malformed one is.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if global, ok := doc["global"]; ok {
		viper.Set("global", global)
	}
	return nil
}
