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

// Package env declares the BSED_* environment variables and their
// binding into viper, with flag > env > config-file > default precedence.
package env

import (
	"os"

	"github.com/spf13/viper"
)

const Prefix = "BSED"

type Var struct {
	Key        string // e.g. "BSED_FILLER"
	ViperKey   string // e.g. "global.filler"
	Default    string
	HasDefault bool
}

func DefineKV(envName, viperKey string, defaultVal ...string) Var {
	v := Var{Key: Prefix + "_" + envName, ViperKey: viperKey}
	if len(defaultVal) > 0 {
		v.Default = defaultVal[0]
		v.HasDefault = true
	}
	return v
}

func (v Var) EnvKey() string               { return v.Key }
func (v Var) DefaultValue() (string, bool) { return v.Default, v.HasDefault }

// ValueOrDefault precedence: viper (env/config-file already bound into it) → OS env → default → "".
func (v Var) ValueOrDefault() string {
	if v.ViperKey != "" && viper.IsSet(v.ViperKey) {
		return viper.GetString(v.ViperKey)
	}
	if val, ok := os.LookupEnv(v.Key); ok {
		return val
	}
	if v.HasDefault {
		return v.Default
	}
	return ""
}

// BindEnv is a no-op if ViperKey is empty.
func (v Var) BindEnv() error {
	if v.ViperKey == "" {
		return nil
	}
	return viper.BindEnv(v.ViperKey, v.Key)
}

func (v *Var) SetDefault(val string) {
	v.Default = val
	v.HasDefault = true
	if v.ViperKey != "" {
		viper.SetDefault(v.ViperKey, val)
	}
}

// ---- Declare statically ----

var (
	//nolint:revive,gochecknoglobals // declared once, used as a constant table
	FILLER = DefineKV("FILLER", "global.filler", "0")
	//nolint:revive,gochecknoglobals
	PAGER_CMD = DefineKV("PAGER_CMD", "global.pager", "")
	//nolint:revive,gochecknoglobals
	LOG_LEVEL = DefineKV("LOG_LEVEL", "global.logLevel", "info")
	//nolint:revive,gochecknoglobals
	LOG_FILE = DefineKV("LOG_FILE", "global.logFile", "")
)

// BindAll registers every Var's viper binding. Safe to call more than once.
func BindAll() error {
	for _, v := range []Var{FILLER, PAGER_CMD, LOG_LEVEL, LOG_FILE} {
		if err := v.BindEnv(); err != nil {
			return err
		}
	}
	return nil
}
