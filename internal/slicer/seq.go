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

package slicer

import (
	"bytes"

	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/stream"
)

// Seq is a pull iterator of slices. The drain asks for the next slice
// only after it is done with the previous one, so producers advance the
// stream window lazily and the segmenter's retention stays bounded by
// the slice spacing.
type Seq interface {
	Next() (Slice, bool, error)
}

// Collect drains seq into a list, used where the whole slice sequence
// is needed before the slice ops can run.
func Collect(seq Seq) ([]Slice, error) {
	var out []Slice
	for {
		s, ok, err := seq.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, s)
	}
}

// NewWidth tiles the stream into windows of n bytes (the last may be
// shorter) and evaluates rng once per tile with s/e bound to the tile's
// own bounds. The default "16,s..e" reproduces the tile itself, so
// concatenating the emitted slices recovers the stream.
func NewWidth(r *stream.Reader, n int64, rng eval.Range) (Seq, error) {
	if n <= 0 {
		return nil, errdefs.New(errdefs.KindRESOURCE, errdefs.ErrNonPositiveN)
	}
	return &widthSeq{r: r, n: n, rng: rng}, nil
}

type widthSeq struct {
	r      *stream.Reader
	n      int64
	rng    eval.Range
	cursor int64
}

func (w *widthSeq) Next() (Slice, bool, error) {
	if err := w.r.FillTo(w.cursor + w.n); err != nil {
		return Slice{}, false, err
	}
	end := w.cursor + w.n
	if loaded := w.r.Loaded(); end > loaded {
		end = loaded
	}
	if w.cursor >= end {
		return Slice{}, false, nil
	}
	ctx := &eval.Context{Bound: eval.BoundS | eval.BoundE, S: w.cursor, E: end}
	s, e, err := eval.EvalRange(w.rng, ctx)
	if err != nil {
		return Slice{}, false, err
	}
	w.cursor = end
	return Slice{Start: s, End: e}, true, nil
}

// NewFind emits one slice per non-overlapping match of pattern,
// scanning forward from the end of the previous match. greedy releases
// match-free regions as the scan moves, so a sparse stream never
// accumulates; the pipeline disables it when a downstream op still
// holds earlier slices.
func NewFind(r *stream.Reader, pattern []byte, greedy bool) (Seq, error) {
	if len(pattern) == 0 {
		return nil, errdefs.New(errdefs.KindARG, errdefs.ErrEmptyFindArray)
	}
	win := stream.DefaultLookahead
	if w := 2 * len(pattern); w > win {
		win = w
	}
	return &findSeq{r: r, pat: pattern, win: win, greedy: greedy}, nil
}

type findSeq struct {
	r      *stream.Reader
	pat    []byte
	win    int
	greedy bool
	cursor int64
}

func (f *findSeq) Next() (Slice, bool, error) {
	for {
		win, err := f.r.Window(f.cursor, f.win)
		if err != nil {
			return Slice{}, false, err
		}
		if len(win) < len(f.pat) {
			return Slice{}, false, nil
		}
		if idx := bytes.Index(win, f.pat); idx >= 0 {
			start := f.cursor + int64(idx)
			end := start + int64(len(f.pat))
			f.cursor = end
			if f.greedy {
				f.r.Release(start)
			}
			return Slice{Start: start, End: end}, true, nil
		}
		// Keep a pattern-length overlap so matches spanning the window
		// boundary are still seen.
		f.cursor += int64(len(win) - len(f.pat) + 1)
		if f.greedy {
			f.r.Release(f.cursor)
		}
	}
}

// NewWalk evaluates exprs cyclically, each time with an array view over
// the bytes ahead of the cursor, to produce the next chunk length. It
// halts when an evaluated length is non-positive or the cursor reaches
// EOF. Views cover at most the lookahead window; bytes past it, like
// bytes past EOF, read as zero.
func NewWalk(r *stream.Reader, exprs []*eval.Node) Seq {
	return &walkSeq{r: r, exprs: exprs}
}

type walkSeq struct {
	r      *stream.Reader
	exprs  []*eval.Node
	cursor int64
	i      int
	halted bool
}

func (w *walkSeq) Next() (Slice, bool, error) {
	if w.halted {
		return Slice{}, false, nil
	}
	win, err := w.r.Window(w.cursor, stream.DefaultLookahead)
	if err != nil {
		return Slice{}, false, err
	}
	if len(win) == 0 {
		return Slice{}, false, nil
	}
	expr := w.exprs[w.i%len(w.exprs)]
	w.i++
	length, err := eval.Eval(expr, &eval.Context{Bound: eval.BoundWindow, Window: win})
	if err != nil {
		return Slice{}, false, err
	}
	if length <= 0 {
		w.halted = true
		return Slice{}, false, nil
	}
	end := w.cursor + length
	if err := w.r.FillTo(end); err != nil {
		return Slice{}, false, err
	}
	if loaded := w.r.Loaded(); end > loaded {
		end = loaded
	}
	s := Slice{Start: w.cursor, End: end}
	w.cursor = end
	return s, true, nil
}

// NewListSeq adapts an already-computed slice list (guide mode) to the
// pull interface. greedy skips the gap below each slice chunkwise so a
// sparse guide never accumulates bytes in the window.
func NewListSeq(r *stream.Reader, slices []Slice, greedy bool) Seq {
	return &listSeq{r: r, slices: slices, greedy: greedy}
}

type listSeq struct {
	r      *stream.Reader
	slices []Slice
	greedy bool
}

func (l *listSeq) Next() (Slice, bool, error) {
	if len(l.slices) == 0 {
		return Slice{}, false, nil
	}
	s := l.slices[0]
	l.slices = l.slices[1:]
	if l.greedy && s.Start > l.r.Base() {
		if err := l.r.Skip(s.Start); err != nil {
			return Slice{}, false, err
		}
	}
	return s, true, nil
}
