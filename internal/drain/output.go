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

package drain

import (
	"io"
	"os"

	"github.com/bsed-project/bsed/internal/errdefs"
)

// FileSink is the --output TEMPLATE drain: for each slice it renders
// TEMPLATE and writes to the resulting name, truncating on first write
// and appending afterward. A rendered name of "-" or "" goes to Stdout.
// File handles are cached keyed by rendered name so repeated names keep
// appending to the same open file across slices.
type FileSink struct {
	Stdout  io.Writer
	tpl     *Template
	opened  map[string]*os.File
	pathsOf []string // deterministic Close order
}

// NewFileSink builds a FileSink rendering tpl per slice.
func NewFileSink(tpl *Template, stdout io.Writer) *FileSink {
	return &FileSink{Stdout: stdout, tpl: tpl, opened: make(map[string]*os.File)}
}

// Write renders the template for (n, l) and writes data to the result.
func (s *FileSink) Write(n, l int64, data []byte) error {
	name, err := s.tpl.Render(n, l)
	if err != nil {
		return err
	}
	if name == "-" || name == "" {
		_, err := s.Stdout.Write(data)
		if err != nil {
			return errdefs.New(errdefs.KindIO, err)
		}
		return nil
	}

	f, ok := s.opened[name]
	if !ok {
		f, err = os.Create(name)
		if err != nil {
			return errdefs.New(errdefs.KindIO, err)
		}
		s.opened[name] = f
		s.pathsOf = append(s.pathsOf, name)
	}
	if _, err := f.Write(data); err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	return nil
}

// Close flushes and closes every file opened by Write, in first-opened
// order.
func (s *FileSink) Close() error {
	var firstErr error
	for _, name := range s.pathsOf {
		if err := s.opened[name].Close(); err != nil && firstErr == nil {
			firstErr = errdefs.New(errdefs.KindIO, err)
		}
	}
	return firstErr
}
