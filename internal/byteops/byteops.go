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

// Package byteops implements the non-patch Stage-2 byte transducers,
// cut and pad, as forward readers over the decoded stream. patch is
// its own package (internal/patch) since it already needs the
// streaming applier shared with --guide/--patch-back.
package byteops

import (
	"io"

	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/stream"
)

// NewCut returns a reader emitting the concatenation of the evaluated
// ranges' spans in the order the ranges were given (not sorted).
// Ranges bind s to 0; e is bound only when the caller knows the stream
// length, which the pipeline guarantees by spooling first when any cut
// range refers to e. Spans may revisit earlier offsets: src retains
// bytes from the lowest start among the spans not yet emitted, so
// memory is bounded by the reordering distance, not the stream size.
func NewCut(src *stream.Reader, ranges []eval.Range, length int64, haveLength bool) (io.Reader, error) {
	ctx := &eval.Context{Bound: eval.BoundS, S: 0}
	if haveLength {
		ctx.Bound |= eval.BoundE
		ctx.E = length
	}
	spans := make([][2]int64, 0, len(ranges))
	for _, r := range ranges {
		start, end, err := eval.EvalRange(r, ctx)
		if err != nil {
			return nil, err
		}
		if start < 0 {
			start = 0
		}
		if haveLength {
			if start > length {
				start = length
			}
			if end > length {
				end = length
			}
		}
		if end > start {
			spans = append(spans, [2]int64{start, end})
		}
	}
	c := &cutReader{src: src, spans: spans}
	if len(spans) > 0 {
		c.pos = spans[0][0]
	}
	c.floor = c.minStart()
	return c, nil
}

type cutReader struct {
	src   *stream.Reader
	spans [][2]int64
	pos   int64
	floor int64
}

func (c *cutReader) Read(p []byte) (int, error) {
	for {
		if len(c.spans) == 0 {
			return 0, io.EOF
		}
		// Skipped regions below every remaining span are dead; drop
		// them chunkwise before loading the next window.
		if c.src.Base() < c.floor {
			if err := c.src.Skip(c.floor); err != nil {
				return 0, err
			}
		}
		cur := c.spans[0]
		if c.pos >= cur[1] {
			c.finishSpan()
			continue
		}
		want := cur[1] - c.pos
		if int64(len(p)) < want {
			want = int64(len(p))
		}
		b, err := c.src.Window(c.pos, int(want))
		if err != nil {
			return 0, err
		}
		if len(b) == 0 {
			// EOF clamps the span.
			c.finishSpan()
			continue
		}
		n := copy(p, b)
		c.pos += int64(n)
		return n, nil
	}
}

func (c *cutReader) finishSpan() {
	c.spans = c.spans[1:]
	if len(c.spans) == 0 {
		c.src.Release(c.src.Loaded())
		return
	}
	c.pos = c.spans[0][0]
	c.floor = c.minStart()
	c.src.Release(c.floor)
}

func (c *cutReader) minStart() int64 {
	var floor int64
	for i, s := range c.spans {
		if i == 0 || s[0] < floor {
			floor = s[0]
		}
	}
	return floor
}

// NewPad returns a reader that prepends n and appends m filler bytes
// around src. Negative amounts are rejected.
func NewPad(src io.Reader, n, m int64, filler byte) (io.Reader, error) {
	if n < 0 || m < 0 {
		return nil, errdefs.New(errdefs.KindRESOURCE, errdefs.ErrNegativePad)
	}
	return &padReader{src: src, head: n, tail: m, filler: filler}, nil
}

type padReader struct {
	src      io.Reader
	head     int64
	tail     int64
	filler   byte
	bodyDone bool
}

func (d *padReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if d.head > 0 {
		n := fillInto(p, d.head, d.filler)
		d.head -= n
		return int(n), nil
	}
	if !d.bodyDone {
		n, err := d.src.Read(p)
		if err == io.EOF {
			d.bodyDone = true
			err = nil
		}
		if n > 0 || err != nil || !d.bodyDone {
			return n, err
		}
	}
	if d.tail > 0 {
		n := fillInto(p, d.tail, d.filler)
		d.tail -= n
		return int(n), nil
	}
	return 0, io.EOF
}

func fillInto(p []byte, n int64, filler byte) int64 {
	if n > int64(len(p)) {
		n = int64(len(p))
	}
	for i := int64(0); i < n; i++ {
		p[i] = filler
	}
	return n
}
