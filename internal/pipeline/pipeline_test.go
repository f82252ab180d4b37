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

package pipeline

import (
	"io"
	"strings"
	"testing"

	"github.com/bsed-project/bsed/internal/eval"
)

func mustRanges(t *testing.T, list string) []eval.Range {
	t.Helper()
	out, err := eval.ParseRangeList(list)
	if err != nil {
		t.Fatalf("ParseRangeList(%q): %v", list, err)
	}
	return out
}

func TestNeedSpool(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want bool
	}{
		{"default width dump", Options{}, false},
		{"patch-back", Options{PatchBackCmd: "cat"}, true},
		{"slice mode", Options{Stage3: Stage3Slice}, true},
		{"invert", Options{InvertSet: true}, true},
		{"extend", Options{ExtendSet: true}, true},
		{"lines without e", Options{LinesSet: true}, false},
		{"merge", Options{MergeSet: true}, false},
	}
	for _, c := range cases {
		if got := needSpool(&c.opts); got != c.want {
			t.Errorf("%s: needSpool = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNeedSpool_LinesReadingE(t *testing.T) {
	opts := Options{LinesSet: true, LinesRanges: mustRanges(t, "e-2..e")}
	if !needSpool(&opts) {
		t.Error("lines ranges reading e must spool for the slice count")
	}
	opts.LinesRanges = mustRanges(t, "0..2")
	if needSpool(&opts) {
		t.Error("e-free lines ranges should stream")
	}
}

// TestBuildStage2_CutTail checks the spill path: a cut range reading e
// needs the stream length, so Stage 2 spools the decoded stream first.
func TestBuildStage2_CutTail(t *testing.T) {
	opts := &Options{CutSet: true, CutRanges: mustRanges(t, "e-3..e")}
	rd, cleanup, err := buildStage2(opts, strings.NewReader("Hello\n"))
	defer cleanup()
	if err != nil {
		t.Fatalf("buildStage2: %v", err)
	}
	got, err := io.ReadAll(rd)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "lo\n" {
		t.Errorf("cut e-3..e = %q, want %q", got, "lo\n")
	}
}
