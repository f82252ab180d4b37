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

// Package patch implements the Stage-2 `patch` byte transducer: applying
// a sorted, disjoint sequence of patch records to a forward byte stream.
package patch

import (
	"io"

	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/hexcodec"
)

// Record is one validated patch entry, in the target stream's offset
// space (I3).
type Record struct {
	Offset  uint64
	Length  uint64
	Payload []byte
}

// LoadSorted reads every record from r and validates I2: sorted by
// offset with disjoint [offset, offset+length) targets.
func LoadSorted(r io.Reader) ([]Record, error) {
	sc := hexcodec.NewRecordScanner(r)
	var out []Record
	var prevEnd uint64
	first := true
	for {
		rec, ok, err := sc.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if !first {
			if rec.Offset < prevEnd {
				return nil, errdefs.New(errdefs.KindSEMANTIC, errdefs.ErrOverlappingPatch)
			}
		}
		first = false
		prevEnd = rec.Offset + rec.Length
		out = append(out, Record{Offset: rec.Offset, Length: rec.Length, Payload: rec.Payload})
	}
	return out, nil
}

// Apply streams src through the patch list to dst. The cursor c tracks
// the input offset; each patch copies [c, off) verbatim, emits its
// payload, then skips Length input bytes. A patch whose end exceeds EOF
// is clamped to EOF; a patch positioned at EOF is a pure insertion.
func Apply(dst io.Writer, src io.Reader, records []Record) error {
	r := newCountingReader(src)
	var c uint64

	for _, rec := range records {
		if rec.Offset > c {
			if err := copyN(dst, r, rec.Offset-c); err != nil {
				return err
			}
			c = rec.Offset
		}
		if len(rec.Payload) > 0 {
			if _, err := dst.Write(rec.Payload); err != nil {
				return errdefs.New(errdefs.KindIO, err)
			}
		}
		skipped, err := discardUpTo(r, rec.Length)
		if err != nil {
			return err
		}
		c += skipped
	}

	if err := copyRemainder(dst, r); err != nil {
		return err
	}
	return nil
}

// NewApplier adapts Apply to a reader so the patch step slots into the
// Stage-2 transducer chain: src is consumed forward, patched bytes come
// out the other side, and nothing is buffered beyond the pipe window.
func NewApplier(src io.Reader, records []Record) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(Apply(pw, src, records))
	}()
	return pr
}

type countingReader struct {
	r   io.Reader
	eof bool
}

func newCountingReader(r io.Reader) *countingReader { return &countingReader{r: r} }

// copyN copies exactly n bytes from r to dst, or fewer if r hits EOF
// first (the patch's offset exceeded the stream, clamped silently,
// matching the "patch at EOF inserts at tail" rule applied transitively).
func copyN(dst io.Writer, r *countingReader, n uint64) error {
	buf := make([]byte, 64*1024)
	for n > 0 {
		k := uint64(len(buf))
		if k > n {
			k = n
		}
		rn, err := r.r.Read(buf[:k])
		if rn > 0 {
			if _, werr := dst.Write(buf[:rn]); werr != nil {
				return errdefs.New(errdefs.KindIO, werr)
			}
			n -= uint64(rn)
		}
		if err != nil {
			if err == io.EOF {
				r.eof = true
				return nil
			}
			return errdefs.New(errdefs.KindIO, err)
		}
	}
	return nil
}

// discardUpTo reads and discards up to n bytes, returning how many were
// actually available before EOF.
func discardUpTo(r *countingReader, n uint64) (uint64, error) {
	buf := make([]byte, 64*1024)
	var total uint64
	for total < n {
		k := uint64(len(buf))
		if rem := n - total; rem < k {
			k = rem
		}
		rn, err := r.r.Read(buf[:k])
		total += uint64(rn)
		if err != nil {
			if err == io.EOF {
				r.eof = true
				break
			}
			return total, errdefs.New(errdefs.KindIO, err)
		}
	}
	return total, nil
}

func copyRemainder(dst io.Writer, r *countingReader) error {
	if r.eof {
		return nil
	}
	if _, err := io.Copy(dst, r.r); err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	return nil
}
