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

package stream

import (
	"io"
	"os"

	"github.com/bsed-project/bsed/internal/errdefs"
)

// Open resolves a positional input name to a readable, closable stream:
// stdin for "-"/"/dev/stdin", or the named file otherwise.
func Open(name string) (io.ReadCloser, error) {
	if IsStdin(name) {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errdefs.New(errdefs.KindIO, err)
	}
	return f, nil
}

// OpenAll resolves every name in order, closing already-opened sources
// if a later one fails.
func OpenAll(names []string) ([]io.ReadCloser, error) {
	out := make([]io.ReadCloser, 0, len(names))
	for _, n := range names {
		rc, err := Open(n)
		if err != nil {
			CloseAll(out)
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

// CloseAll closes every stream, ignoring errors (best-effort cleanup).
func CloseAll(rcs []io.ReadCloser) {
	for _, rc := range rcs {
		_ = rc.Close()
	}
}
