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

package sliceops

import (
	"regexp"

	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/slicer"
	"github.com/bsed-project/bsed/internal/stream"
)

// NewRegex pulls slices from src and emits one slice per within-slice
// match of re. Slice bytes come from the segmenter's retained window,
// which still holds them because the drain has not released past the
// slice yet.
func NewRegex(src slicer.Seq, r *stream.Reader, re *regexp.Regexp) slicer.Seq {
	return &regexSeq{src: src, r: r, re: re}
}

type regexSeq struct {
	src  slicer.Seq
	r    *stream.Reader
	re   *regexp.Regexp
	pend []slicer.Slice
}

func (q *regexSeq) Next() (slicer.Slice, bool, error) {
	for len(q.pend) == 0 {
		s, ok, err := q.src.Next()
		if err != nil || !ok {
			return slicer.Slice{}, false, err
		}
		start := s.Start
		if start < 0 {
			start = 0
		}
		view, err := q.r.Bytes(start, s.End)
		if err != nil {
			return slicer.Slice{}, false, err
		}
		for _, loc := range q.re.FindAllIndex(view, -1) {
			q.pend = append(q.pend, slicer.Slice{
				Start: start + int64(loc[0]),
				End:   start + int64(loc[1]),
			})
		}
	}
	out := q.pend[0]
	q.pend = q.pend[1:]
	return out, true, nil
}

// NewMerge folds the pulled sequence with the same rule as Merge,
// holding back only the current accumulator. The accumulator's bytes
// stay retained until the drain formats the emitted slice.
func NewMerge(src slicer.Seq, n int64) slicer.Seq {
	return &mergeSeq{src: src, n: n}
}

type mergeSeq struct {
	src  slicer.Seq
	n    int64
	acc  slicer.Slice
	has  bool
	done bool
}

func (m *mergeSeq) Next() (slicer.Slice, bool, error) {
	if m.done {
		return slicer.Slice{}, false, nil
	}
	for {
		s, ok, err := m.src.Next()
		if err != nil {
			return slicer.Slice{}, false, err
		}
		if !ok {
			m.done = true
			if m.has {
				m.has = false
				return m.acc, true, nil
			}
			return slicer.Slice{}, false, nil
		}
		if !m.has {
			m.acc, m.has = s, true
			continue
		}
		if m.acc.End+m.n >= s.Start {
			if s.End > m.acc.End {
				m.acc.End = s.End
			}
			continue
		}
		out := m.acc
		m.acc = s
		return out, true, nil
	}
}

// NewLines filters the pulled sequence by slice index. Only ranges that
// do not refer to e (the total slice count, unknown until the sequence
// ends) can be applied on the fly; the pipeline spools when one does.
func NewLines(src slicer.Seq, ranges []eval.Range) (slicer.Seq, error) {
	ctx := &eval.Context{Bound: eval.BoundS, S: 0}
	spans, err := indexSpans(ranges, ctx)
	if err != nil {
		return nil, err
	}
	return &linesSeq{src: src, spans: spans}, nil
}

type linesSeq struct {
	src   slicer.Seq
	spans [][2]int64
	idx   int64
}

func (l *linesSeq) Next() (slicer.Slice, bool, error) {
	for {
		s, ok, err := l.src.Next()
		if err != nil || !ok {
			return slicer.Slice{}, false, err
		}
		i := l.idx
		l.idx++
		if inAnySpan(i, l.spans) {
			return s, true, nil
		}
	}
}
