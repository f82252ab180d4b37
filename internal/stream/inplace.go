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
	"os"
	"path/filepath"

	"github.com/bsed-project/bsed/internal/errdefs"
)

// RunInplace drives the READ -> RUN -> WRITE TEMP -> FSYNC -> RENAME ->
// (DISCARD on error) state machine, once per deduplicated file. run
// receives the source file and a temp-file destination in the same
// directory; any error it returns aborts that file's update and leaves
// the source untouched.
func RunInplace(files []string, run func(src *os.File, dst *os.File) error) error {
	for _, name := range Dedup(files) {
		if err := runInplaceOne(name, run); err != nil {
			return err
		}
	}
	return nil
}

func runInplaceOne(path string, run func(src, dst *os.File) error) error {
	src, err := os.Open(path)
	if err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	defer src.Close()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".bsed-tmp-*")
	if err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := run(src, tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	if err := tmp.Close(); err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	committed = true
	return nil
}
