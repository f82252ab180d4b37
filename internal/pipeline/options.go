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

// Package pipeline wires the five stages (internal/stream,
// internal/byteops + internal/patch, internal/slicer, internal/sliceops,
// internal/drain) into the single concrete run the design notes call
// for: every flag is resolved to a compiled Options value once, at
// cobra's Run callback, and Run drives that value to completion with no
// further per-chunk dispatch decisions.
package pipeline

import (
	"regexp"

	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/hexcodec"
)

// Stage1Mode selects the exclusive multiplexer mode.
type Stage1Mode int

const (
	Stage1Cat Stage1Mode = iota
	Stage1Zip
	Stage1Inplace
)

// Stage3Mode selects the exclusive slicer mode.
type Stage3Mode int

const (
	Stage3Width Stage3Mode = iota
	Stage3Find
	Stage3Walk
	Stage3Slice
	Stage3Guide
)

// Options is the fully-compiled form of every CLI flag: expressions
// and ranges are already parsed into *eval.Node/eval.Range, formats
// into hexcodec.Signature, so Run never touches argument text.
type Options struct {
	Inputs []string

	InFormat  hexcodec.Signature
	OutFormat hexcodec.Signature
	Filler    byte

	Stage1   Stage1Mode
	CatN     int64
	ZipN     int64
	Inplace  bool

	CutSet    bool
	CutRanges []eval.Range

	PadSet bool
	PadN   int64
	PadM   int64

	PatchFile string // empty disables Stage-2 patch

	Stage3      Stage3Mode
	WidthN      int64
	WidthRange  eval.Range
	FindArray   []byte
	WalkExprs   []*eval.Node
	SliceRanges []eval.Range
	GuideFile   string

	RegexSet     bool
	RegexPattern *regexp.Regexp

	InvertSet    bool
	InvertRanges []eval.Range

	ExtendSet    bool
	ExtendRanges []eval.Range

	MergeSet bool
	MergeN   int64

	LinesSet    bool
	LinesRanges []eval.Range

	OutputTemplate string // default "-"
	PatchBackCmd   string // empty disables patch-back

	PagerCmd string // resolved precedence: flag > $PAGER > $BSED_PAGER_CMD > default
}
