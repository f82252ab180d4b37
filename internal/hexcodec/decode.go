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

package hexcodec

import (
	"io"

	"github.com/bsed-project/bsed/internal/errdefs"
)

// NewDecoder returns a reader that decodes dump input in sig back into
// the flat byte stream: b/nnb pass the input through verbatim, nnx
// concatenates record payloads in order, and x places each record at
// its absolute offset, filling gaps with filler and truncating the
// stream at the furthest offset+length seen. Decoding is forward-only;
// nothing beyond the current record and any withheld tail is buffered.
func NewDecoder(r io.Reader, sig Signature, filler byte) io.Reader {
	if sig.IsRaw() {
		return r
	}
	if sig == NNX {
		return &nnxDecoder{sc: NewRecordScanner(r)}
	}
	return &xDecoder{sc: NewRecordScanner(r), filler: filler}
}

type nnxDecoder struct {
	sc   *RecordScanner
	pend []byte
	done bool
	err  error
}

func (d *nnxDecoder) Read(p []byte) (int, error) {
	for len(d.pend) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		if d.done {
			return 0, io.EOF
		}
		rec, ok, err := d.sc.Next()
		if err != nil {
			d.err = err
			return 0, err
		}
		if !ok {
			d.done = true
			return 0, io.EOF
		}
		d.pend = rec.Payload
	}
	n := copy(p, d.pend)
	d.pend = d.pend[n:]
	return n, nil
}

// xSeg is a run of fill filler bytes followed by data bytes, in stream
// order.
type xSeg struct {
	fill int64
	data []byte
}

// xDecoder streams an x dump back into its byte stream. Records must
// arrive sorted by offset with non-overlapping payloads; an offset that
// regresses below the previous placement is rejected, since those bytes
// may already have been handed downstream. Payload bytes past the
// current offset+length high-water mark are withheld until a later
// record raises it; whatever is still withheld at EOF falls to the
// final truncation.
type xDecoder struct {
	sc     *RecordScanner
	filler byte

	queue    []xSeg // emittable, entirely below limit
	held     []xSeg // determined content in [front, placeEnd)
	front    int64  // absolute offset of the first held byte
	limit    int64  // furthest offset+length seen
	placeEnd int64  // offset just past the last payload placed
	done     bool
	err      error
}

func (d *xDecoder) Read(p []byte) (int, error) {
	for {
		if len(d.queue) > 0 {
			seg := &d.queue[0]
			if seg.fill > 0 {
				n := int64(len(p))
				if n > seg.fill {
					n = seg.fill
				}
				for i := int64(0); i < n; i++ {
					p[i] = d.filler
				}
				seg.fill -= n
				if seg.fill == 0 && len(seg.data) == 0 {
					d.queue = d.queue[1:]
				}
				return int(n), nil
			}
			if len(seg.data) > 0 {
				n := copy(p, seg.data)
				seg.data = seg.data[n:]
				if len(seg.data) == 0 {
					d.queue = d.queue[1:]
				}
				return n, nil
			}
			d.queue = d.queue[1:]
			continue
		}
		if d.err != nil {
			return 0, d.err
		}
		if d.done {
			return 0, io.EOF
		}
		if err := d.advance(); err != nil {
			d.err = err
			return 0, err
		}
	}
}

// advance consumes one record (or EOF) and promotes whatever content
// became emittable.
func (d *xDecoder) advance() error {
	rec, ok, err := d.sc.Next()
	if err != nil {
		return err
	}
	if !ok {
		d.done = true
		d.promote(d.limit)
		d.held = nil
		if d.limit > d.placeEnd {
			d.queue = append(d.queue, xSeg{fill: d.limit - d.placeEnd})
		}
		return nil
	}
	off := int64(rec.Offset)
	end := off + int64(rec.Length)
	if off < d.placeEnd {
		return errdefs.New(errdefs.KindSEMANTIC, errdefs.ErrPatchOffsetOrder)
	}
	d.held = append(d.held, xSeg{fill: off - d.placeEnd, data: rec.Payload})
	d.placeEnd = off + int64(len(rec.Payload))
	if end > d.limit {
		d.limit = end
	}
	upto := d.limit
	if d.placeEnd < upto {
		upto = d.placeEnd
	}
	d.promote(upto)
	return nil
}

// promote moves held content below upto onto the emit queue. Content
// between placeEnd and limit stays undetermined until the next record
// says whether it is filler or payload.
func (d *xDecoder) promote(upto int64) {
	for d.front < upto && len(d.held) > 0 {
		seg := &d.held[0]
		switch {
		case seg.fill > 0:
			n := seg.fill
			if room := upto - d.front; n > room {
				n = room
			}
			d.queue = append(d.queue, xSeg{fill: n})
			seg.fill -= n
			d.front += n
		case len(seg.data) > 0:
			n := int64(len(seg.data))
			if room := upto - d.front; n > room {
				n = room
			}
			d.queue = append(d.queue, xSeg{data: seg.data[:n]})
			seg.data = seg.data[n:]
			d.front += n
		}
		if seg.fill == 0 && len(seg.data) == 0 {
			d.held = d.held[1:]
		}
	}
}
