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

// Package slicer implements Stage 3: turning Stage-2's byte stream into
// a sequence of half-open slices, one mode at a time (width/find/walk/
// slice/guide). Slices hold offsets only; bytes are re-read from the
// segmenter's retained window or from the spool at drain time.
package slicer

import (
	"sort"

	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/hexcodec"
)

// Slice is a half-open [Start, End) interval over the Stage-2 stream.
// Ordering is lexicographic on (Start, End).
type Slice struct {
	Start, End int64
}

// Len is the slice width in bytes.
func (s Slice) Len() int64 { return s.End - s.Start }

// Clamp bounds the slice to [0, length), collapsing to an empty slice
// when an evaluated range landed entirely outside the stream.
func (s Slice) Clamp(length int64) Slice {
	if s.Start < 0 {
		s.Start = 0
	}
	if s.Start > length {
		s.Start = length
	}
	if s.End > length {
		s.End = length
	}
	if s.End < s.Start {
		s.End = s.Start
	}
	return s
}

// byStartEnd sorts slices per I1.
type byStartEnd []Slice

func (s byStartEnd) Len() int      { return len(s) }
func (s byStartEnd) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byStartEnd) Less(i, j int) bool {
	if s[i].Start != s[j].Start {
		return s[i].Start < s[j].Start
	}
	return s[i].End < s[j].End
}

// Sort orders slices by (Start, End), the rule every list producer
// whose output is not already in scan order must apply.
func Sort(slices []Slice) { sort.Stable(byStartEnd(slices)) }

// Width tiles a stream of known length into non-overlapping windows of
// length n (the last may be shorter), then evaluates rng once per tile
// with s/e bound to the tile's own [start, end). The spooled pipeline
// regime uses this form; the streaming regime tiles with NewWidth.
func Width(dataLen int64, n int64, rng eval.Range) ([]Slice, error) {
	if n <= 0 {
		return nil, errdefs.New(errdefs.KindRESOURCE, errdefs.ErrNonPositiveN)
	}
	var out []Slice
	for start := int64(0); start < dataLen; start += n {
		end := start + n
		if end > dataLen {
			end = dataLen
		}
		ctx := &eval.Context{Bound: eval.BoundS | eval.BoundE, S: start, E: end}
		s, e, err := eval.EvalRange(rng, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, Slice{Start: s, End: e})
	}
	return out, nil
}

// SliceMode emits one slice per evaluated range over the whole stream
// (s=0, e=dataLen), sorted by (start, end) before return.
func SliceMode(dataLen int64, ranges []eval.Range) ([]Slice, error) {
	ctx := &eval.Context{Bound: eval.BoundS | eval.BoundE, S: 0, E: dataLen}
	out := make([]Slice, 0, len(ranges))
	for _, r := range ranges {
		s, e, err := eval.EvalRange(r, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, Slice{Start: s, End: e})
	}
	Sort(out)
	return out, nil
}

// Guide parses sorted guide records of the shared dump/patch line
// format ("offset length [| ...]") into slices. Records must be
// strictly sorted and disjoint by (offset, offset+length); a violation
// is a fatal SEMANTIC error.
func Guide(recs []hexcodec.Record) ([]Slice, error) {
	out := make([]Slice, 0, len(recs))
	var prevEnd uint64
	for i, rec := range recs {
		if i > 0 && rec.Offset < prevEnd {
			return nil, errdefs.New(errdefs.KindSEMANTIC, errdefs.ErrUnsortedGuide)
		}
		prevEnd = rec.Offset + rec.Length
		out = append(out, Slice{Start: int64(rec.Offset), End: int64(rec.Offset + rec.Length)})
	}
	return out, nil
}

// ParseHexArray decodes the --find ARRAY argument: a run of hex digits,
// space-separated into byte-pair tokens or packed continuously, in the
// same lower/upper-case-tolerant alphabet as the hex codec.
func ParseHexArray(s string) ([]byte, error) {
	var digits []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			continue
		}
		if !isHexDigit(c) {
			return nil, errdefs.New(errdefs.KindARG, errdefs.ErrBadHexDigit)
		}
		digits = append(digits, c)
	}
	if len(digits)%2 != 0 {
		return nil, errdefs.New(errdefs.KindARG, errdefs.ErrOddHexToken)
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		hi := hexVal(digits[2*i])
		lo := hexVal(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
