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

// Package sliceops implements Stage 4: the fixed-order slice transducers
// regex, invert, extend, merge, lines. The list forms here serve the
// spooled pipeline regime, where the full slice list exists and slice
// bytes are read back from the spool; seq.go holds the streaming
// adapters.
package sliceops

import (
	"io"
	"regexp"

	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/slicer"
)

// Regex runs re against each input slice's bytes, read back from src by
// offset, and emits one output slice per match; matches are
// within-slice and never cross slice boundaries.
func Regex(slices []slicer.Slice, src io.ReaderAt, size int64, re *regexp.Regexp) ([]slicer.Slice, error) {
	var out []slicer.Slice
	var buf []byte
	for _, s := range slices {
		s = s.Clamp(size)
		if s.Len() == 0 {
			continue
		}
		if int64(cap(buf)) < s.Len() {
			buf = make([]byte, s.Len())
		}
		buf = buf[:s.Len()]
		if _, err := src.ReadAt(buf, s.Start); err != nil {
			return nil, err
		}
		for _, loc := range re.FindAllIndex(buf, -1) {
			out = append(out, slicer.Slice{
				Start: s.Start + int64(loc[0]),
				End:   s.Start + int64(loc[1]),
			})
		}
	}
	return out, nil
}

// Invert computes the complement of the union of in over [0, streamLen),
// then evaluates each range against every gap (s/e bound to the gap's
// own start/end) to produce the output, which is re-sorted per I1.
func Invert(in []slicer.Slice, streamLen int64, ranges []eval.Range) ([]slicer.Slice, error) {
	gaps := complement(in, streamLen)
	var out []slicer.Slice
	for _, g := range gaps {
		ctx := &eval.Context{Bound: eval.BoundS | eval.BoundE, S: g.Start, E: g.End}
		for _, r := range ranges {
			s, e, err := eval.EvalRange(r, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, slicer.Slice{Start: s, End: e})
		}
	}
	slicer.Sort(out)
	return out, nil
}

// complement returns the sorted gaps of [0, streamLen) not covered by
// the union of in (which may overlap).
func complement(in []slicer.Slice, streamLen int64) []slicer.Slice {
	sorted := make([]slicer.Slice, len(in))
	copy(sorted, in)
	slicer.Sort(sorted)

	var gaps []slicer.Slice
	cursor := int64(0)
	for _, s := range sorted {
		if s.Start > cursor {
			gaps = append(gaps, slicer.Slice{Start: cursor, End: s.Start})
		}
		if s.End > cursor {
			cursor = s.End
		}
	}
	if cursor < streamLen {
		gaps = append(gaps, slicer.Slice{Start: cursor, End: streamLen})
	}
	return gaps
}

// Extend evaluates each range against every input slice (s/e bound to
// that slice's own start/end), multiplying the slice count by the
// number of ranges; the result is re-sorted per I1.
func Extend(in []slicer.Slice, ranges []eval.Range) ([]slicer.Slice, error) {
	out := make([]slicer.Slice, 0, len(in)*len(ranges))
	for _, s := range in {
		ctx := &eval.Context{Bound: eval.BoundS | eval.BoundE, S: s.Start, E: s.End}
		for _, r := range ranges {
			start, end, err := eval.EvalRange(r, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, slicer.Slice{Start: start, End: end})
		}
	}
	slicer.Sort(out)
	return out, nil
}

// Merge left-folds slices already sorted by (start,end): if
// acc.End+n >= next.Start, acc absorbs next (extending to the farther
// end); otherwise acc is emitted and a new accumulator begins. Applying
// Merge twice with the same n is a no-op (P5): the output already
// satisfies acc.End+n < next.Start for every adjacent pair.
func Merge(in []slicer.Slice, n int64) []slicer.Slice {
	if len(in) == 0 {
		return nil
	}
	out := make([]slicer.Slice, 0, len(in))
	acc := in[0]
	for _, next := range in[1:] {
		if acc.End+n >= next.Start {
			if next.End > acc.End {
				acc.End = next.End
			}
			continue
		}
		out = append(out, acc)
		acc = next
	}
	return append(out, acc)
}

// Lines evaluates ranges over the slice-index space (s=0, e=len(in)) and
// emits only the input slices whose index falls in the resulting union.
func Lines(in []slicer.Slice, ranges []eval.Range) ([]slicer.Slice, error) {
	ctx := &eval.Context{Bound: eval.BoundS | eval.BoundE, S: 0, E: int64(len(in))}
	spans, err := indexSpans(ranges, ctx)
	if err != nil {
		return nil, err
	}

	var out []slicer.Slice
	for i, s := range in {
		if inAnySpan(int64(i), spans) {
			out = append(out, s)
		}
	}
	return out, nil
}

func indexSpans(ranges []eval.Range, ctx *eval.Context) ([][2]int64, error) {
	var spans [][2]int64
	for _, r := range ranges {
		s, e, err := eval.EvalRange(r, ctx)
		if err != nil {
			return nil, err
		}
		spans = append(spans, [2]int64{s, e})
	}
	return spans, nil
}

func inAnySpan(idx int64, spans [][2]int64) bool {
	for _, sp := range spans {
		if idx >= sp[0] && idx < sp[1] {
			return true
		}
	}
	return false
}
