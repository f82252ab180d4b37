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

// Package stream holds the byte-stream primitives every pipeline stage
// is built from: the buffered segmenter that serves overlapping windows
// over a forward stream, the disk spool for the random-access drain
// regime, and the Stage-1 multiplexer (cat/zip/inplace).
package stream

import (
	"io"

	"github.com/bsed-project/bsed/internal/errdefs"
)

// DefaultLookahead bounds how far a scanning consumer (find, walk array
// views) may look past its cursor in one window.
const DefaultLookahead = 64 * 1024

// fillChunk is the read granularity for refills and skips.
const fillChunk = 64 * 1024

// Reader is the buffered segmenter downstream stages read the stream
// through. It retains a sliding window [Base, Loaded) of the stream by
// absolute offset: FillTo extends the window forward, Release shrinks
// it from the left once a consumer is done with a prefix. Consumers
// hold (start, end) offset pairs only and re-read bytes on demand; a
// request below Base means the caller reached back past what it agreed
// to retain and is a RESOURCE error, not a silent rewind.
type Reader struct {
	src  io.Reader
	base int64
	buf  []byte
	eof  bool
}

func NewReader(src io.Reader) *Reader { return &Reader{src: src} }

// Base is the lowest absolute offset still retained.
func (r *Reader) Base() int64 { return r.base }

// Loaded is the absolute offset just past the last byte read from src.
func (r *Reader) Loaded() int64 { return r.base + int64(len(r.buf)) }

// Len returns the total stream length, known only once EOF has been
// reached.
func (r *Reader) Len() (int64, bool) {
	if r.eof {
		return r.Loaded(), true
	}
	return 0, false
}

// FillTo reads from src until at least off bytes of the stream have
// been loaded, or EOF.
func (r *Reader) FillTo(off int64) error {
	for !r.eof && r.Loaded() < off {
		n := len(r.buf)
		r.buf = append(r.buf, make([]byte, fillChunk)...)
		k, err := r.src.Read(r.buf[n : n+fillChunk])
		r.buf = r.buf[:n+k]
		if err == io.EOF {
			r.eof = true
			return nil
		}
		if err != nil {
			return errdefs.WrapIO(err)
		}
	}
	return nil
}

// Bytes returns the stream's bytes in [start, end), reading forward as
// needed. end clamps to EOF; a start at or past the clamped end yields
// an empty view. The returned view aliases the retained window and is
// valid until the next Release.
func (r *Reader) Bytes(start, end int64) ([]byte, error) {
	if err := r.FillTo(end); err != nil {
		return nil, err
	}
	if loaded := r.Loaded(); end > loaded {
		end = loaded
	}
	if start >= end {
		return nil, nil
	}
	if start < r.base {
		return nil, errdefs.New(errdefs.KindRESOURCE, errdefs.ErrWindowExceeded)
	}
	return r.buf[start-r.base : end-r.base], nil
}

// Window returns up to max bytes starting at start, shorter only at
// EOF.
func (r *Reader) Window(start int64, max int) ([]byte, error) {
	return r.Bytes(start, start+int64(max))
}

// Release discards retained bytes below off. Offsets at or below Base
// are a no-op; off past Loaded releases everything read so far.
func (r *Reader) Release(off int64) {
	if off <= r.base {
		return
	}
	if loaded := r.Loaded(); off > loaded {
		off = loaded
	}
	r.buf = r.buf[off-r.base:]
	r.base = off
	// Re-slicing keeps the backing array alive; copy down once the
	// live portion is a small fraction of it.
	if cap(r.buf) >= 4*fillChunk && len(r.buf) < cap(r.buf)/4 {
		r.buf = append(make([]byte, 0, len(r.buf)), r.buf...)
	}
}

// Skip advances past all offsets below to, filling and releasing in
// chunks so the skipped region never accumulates in the window. Only
// valid when no consumer still needs bytes below to.
func (r *Reader) Skip(to int64) error {
	for r.base < to {
		target := r.base + fillChunk
		if target > to {
			target = to
		}
		if err := r.FillTo(target); err != nil {
			return err
		}
		if r.Loaded() < target {
			r.Release(r.Loaded())
			return nil
		}
		r.Release(target)
	}
	return nil
}
