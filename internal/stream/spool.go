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

// Spool is the disk spill for pipeline runs that need random access to
// Stage-2 output: --patch-back (the rewind cache that owns the stream
// while the child runs), slice mode, and ranges that bind e over the
// whole stream. Single-writer until the copy finishes, then read-only
// by (offset, length). Backed by a temp file so memory stays bounded
// no matter how large the stream turns out to be.
type Spool struct {
	f    *os.File
	size int64
}

// NewSpool creates the backing temp file.
func NewSpool() (*Spool, error) {
	f, err := os.CreateTemp("", "bsed-spool-*")
	if err != nil {
		return nil, errdefs.New(errdefs.KindIO, err)
	}
	return &Spool{f: f}, nil
}

// Write appends p, tracking Size. Only valid before reading begins.
func (s *Spool) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	s.size += int64(n)
	if err != nil {
		return n, errdefs.New(errdefs.KindIO, err)
	}
	return n, nil
}

// Size returns the number of bytes written so far.
func (s *Spool) Size() int64 { return s.size }

// ReadAt reads a byte range back. A range ending at Size reads clean;
// EOF on a partial read is not an error since callers clamp to Size
// first.
func (s *Spool) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, errdefs.New(errdefs.KindIO, err)
	}
	return n, nil
}

// Reader returns a fresh forward reader over the spooled bytes.
func (s *Spool) Reader() io.Reader {
	return io.NewSectionReader(s.f, 0, s.size)
}

// Close removes the backing temp file.
func (s *Spool) Close() error {
	name := s.f.Name()
	_ = s.f.Close()
	return os.Remove(name)
}
