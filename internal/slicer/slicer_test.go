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
	"testing"

	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/stream"
)

func mustRange(t *testing.T, s string) eval.Range {
	t.Helper()
	r, err := eval.ParseRange(s)
	if err != nil {
		t.Fatalf("ParseRange(%q): %v", s, err)
	}
	return r
}

func view(t *testing.T, data []byte, s Slice) []byte {
	t.Helper()
	c := s.Clamp(int64(len(data)))
	return data[c.Start:c.End]
}

// TestWidth_RecoversStream exercises P6: concatenating the bytes of the
// slices emitted by width N,s..e over a stream recovers the original.
func TestWidth_RecoversStream(t *testing.T) {
	data := []byte("The quick brown fox")
	slices, err := Width(int64(len(data)), 3, mustRange(t, "s..e"))
	if err != nil {
		t.Fatalf("Width: %v", err)
	}
	var got []byte
	for _, s := range slices {
		got = append(got, view(t, data, s)...)
	}
	if string(got) != string(data) {
		t.Errorf("width reassembly = %q, want %q", got, data)
	}
}

// TestNewWidth_MatchesList checks the windowed tiler against the list
// form over the same stream.
func TestNewWidth_MatchesList(t *testing.T) {
	data := []byte("The quick brown fox")
	want, err := Width(int64(len(data)), 4, mustRange(t, "s..e"))
	if err != nil {
		t.Fatalf("Width: %v", err)
	}
	seq, err := NewWidth(stream.NewReader(bytes.NewReader(data)), 4, mustRange(t, "s..e"))
	if err != nil {
		t.Fatalf("NewWidth: %v", err)
	}
	got, err := Collect(seq)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d slices, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("slice %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNewFind_NonOverlapping(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog.\n")
	pattern, err := ParseHexArray("6f")
	if err != nil {
		t.Fatalf("ParseHexArray: %v", err)
	}
	seq, err := NewFind(stream.NewReader(bytes.NewReader(data)), pattern, true)
	if err != nil {
		t.Fatalf("NewFind: %v", err)
	}
	slices, err := Collect(seq)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(slices) != 4 {
		t.Fatalf("got %d matches, want 4", len(slices))
	}
	for _, s := range slices {
		if string(view(t, data, s)) != "o" {
			t.Errorf("match bytes = %q, want %q", view(t, data, s), "o")
		}
	}
}

func TestNewFind_RejectsEmptyPattern(t *testing.T) {
	if _, err := NewFind(stream.NewReader(bytes.NewReader(nil)), nil, false); err == nil {
		t.Fatal("expected empty-pattern error")
	}
}

func TestSliceMode_Sorted(t *testing.T) {
	ranges := []eval.Range{mustRange(t, "10..20"), mustRange(t, "0..5")}
	slices, err := SliceMode(100, ranges)
	if err != nil {
		t.Fatalf("SliceMode: %v", err)
	}
	if len(slices) != 2 || slices[0].Start != 0 || slices[1].Start != 10 {
		t.Errorf("SliceMode not sorted: %+v", slices)
	}
}

func TestNewWalk_HaltsOnNonPositiveLength(t *testing.T) {
	expr, err := eval.Parse("b[0]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data := []byte{3, 0, 0, 0, 9}
	slices, err := Collect(NewWalk(stream.NewReader(bytes.NewReader(data)), []*eval.Node{expr}))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(slices) != 1 || slices[0].Start != 0 || slices[0].End != 3 {
		t.Fatalf("walk slices = %+v, want one slice [0,3)", slices)
	}
}

func TestParseHexArray_RejectsOddDigits(t *testing.T) {
	if _, err := ParseHexArray("abc"); err == nil {
		t.Fatal("expected odd-digit-count error")
	}
}
