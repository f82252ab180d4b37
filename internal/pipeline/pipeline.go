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
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/bsed-project/bsed/internal/byteops"
	"github.com/bsed-project/bsed/internal/drain"
	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/hexcodec"
	"github.com/bsed-project/bsed/internal/patch"
	"github.com/bsed-project/bsed/internal/sliceops"
	"github.com/bsed-project/bsed/internal/slicer"
	"github.com/bsed-project/bsed/internal/stream"
)

// BuildStage1 multiplexes srcs per opts.Stage1 into the combined input
// stream Stage-2 reads from. Called only for the cat/zip modes; inplace
// feeds its single per-file reader directly.
func BuildStage1(opts *Options, srcs []io.Reader) io.Reader {
	if opts.Stage1 == Stage1Zip {
		return stream.Zip(srcs, int(opts.ZipN), opts.Filler)
	}
	return stream.Cat(srcs, int(opts.CatN), opts.Filler)
}

// rangesUse reports whether any range references the bare identifier
// name. Ranges that read e force the spooled regime: e is the stream
// (or slice-count) total, unknown until EOF.
func rangesUse(ranges []eval.Range, name string) bool {
	for _, r := range ranges {
		if eval.RangeUsesIdent(r, name) {
			return true
		}
	}
	return false
}

// needSpool decides the pipeline regime. Patch-back rereads the whole
// Stage-2 stream after the child exits; slice mode, invert, and extend
// evaluate against the stream length or re-sort the full slice list;
// lines ranges that read e need the total slice count. Everything else
// runs windowed over the segmenter.
func needSpool(opts *Options) bool {
	if opts.PatchBackCmd != "" {
		return true
	}
	if opts.Stage3 == Stage3Slice {
		return true
	}
	if opts.InvertSet || opts.ExtendSet {
		return true
	}
	if opts.LinesSet && rangesUse(opts.LinesRanges, "e") {
		return true
	}
	return false
}

// buildStage2 decodes s1 per opts.InFormat and stacks cut, pad, patch
// in that fixed order as reader transducers. Only cut ranges that read
// e spill the decoded stream to a spool first (the stream length is
// unknowable before EOF); the returned cleanup releases that spool.
func buildStage2(opts *Options, s1 io.Reader) (io.Reader, func(), error) {
	cleanup := func() {}
	rd := hexcodec.NewDecoder(s1, opts.InFormat, opts.Filler)

	if opts.CutSet {
		if rangesUse(opts.CutRanges, "e") {
			sp, err := stream.NewSpool()
			if err != nil {
				return nil, cleanup, err
			}
			cleanup = func() { _ = sp.Close() }
			if _, err := io.Copy(sp, rd); err != nil {
				return nil, cleanup, errdefs.WrapIO(err)
			}
			rd, err = byteops.NewCut(stream.NewReader(sp.Reader()), opts.CutRanges, sp.Size(), true)
			if err != nil {
				return nil, cleanup, err
			}
		} else {
			var err error
			rd, err = byteops.NewCut(stream.NewReader(rd), opts.CutRanges, 0, false)
			if err != nil {
				return nil, cleanup, err
			}
		}
	}
	if opts.PadSet {
		var err error
		rd, err = byteops.NewPad(rd, opts.PadN, opts.PadM, opts.Filler)
		if err != nil {
			return nil, cleanup, err
		}
	}
	if opts.PatchFile != "" {
		f, err := stream.Open(opts.PatchFile)
		if err != nil {
			return nil, cleanup, err
		}
		records, err := patch.LoadSorted(f)
		_ = f.Close()
		if err != nil {
			return nil, cleanup, err
		}
		rd = patch.NewApplier(rd, records)
	}
	return rd, cleanup, nil
}

// loadGuide reads every record of the guide file.
func loadGuide(path string) ([]hexcodec.Record, error) {
	f, err := stream.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := hexcodec.NewRecordScanner(f)
	var recs []hexcodec.Record
	for {
		rec, ok, err := sc.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return recs, nil
		}
		recs = append(recs, rec)
	}
}

// buildTiler constructs the Stage-3 slice producer over the segmenter.
// greedy lets find and guide release scanned match-free regions as they
// go; the caller disables it when a downstream op still holds earlier
// slices.
func buildTiler(opts *Options, r *stream.Reader, greedy bool) (slicer.Seq, error) {
	switch opts.Stage3 {
	case Stage3Find:
		return slicer.NewFind(r, opts.FindArray, greedy)
	case Stage3Walk:
		return slicer.NewWalk(r, opts.WalkExprs), nil
	case Stage3Guide:
		recs, err := loadGuide(opts.GuideFile)
		if err != nil {
			return nil, err
		}
		slices, err := slicer.Guide(recs)
		if err != nil {
			return nil, err
		}
		return slicer.NewListSeq(r, slices, greedy), nil
	default:
		return slicer.NewWidth(r, opts.WidthN, opts.WidthRange)
	}
}

// buildSeq stacks the Stage-4 adapters that run windowed (regex, merge,
// lines) onto the tiler in the fixed op order.
func buildSeq(opts *Options, r *stream.Reader, greedy bool) (slicer.Seq, error) {
	seq, err := buildTiler(opts, r, greedy)
	if err != nil {
		return nil, err
	}
	if opts.RegexSet {
		seq = sliceops.NewRegex(seq, r, opts.RegexPattern)
	}
	if opts.MergeSet {
		seq = sliceops.NewMerge(seq, opts.MergeN)
	}
	if opts.LinesSet {
		seq, err = sliceops.NewLines(seq, opts.LinesRanges)
		if err != nil {
			return nil, err
		}
	}
	return seq, nil
}

// nominalWidth is the Formatter's array-field pad width: the tile size
// in width mode, otherwise 0 (no padding; non-width slices vary in
// length enough that mosaic alignment is not meaningful).
func nominalWidth(opts *Options) int {
	if opts.Stage3 == Stage3Width {
		return int(opts.WidthN)
	}
	return 0
}

// newEmitter builds the Stage-5 sink for the formatted lines. With dst
// set (inplace) lines are concatenated straight to it, with no per-file
// template or pager; otherwise each line routes through the output
// template, behind a pager when the template is stdout on a terminal.
// The returned finish must be called after the last emit.
func newEmitter(opts *Options, dst io.Writer) (func(start, idx int64, line []byte) error, func() error, error) {
	if dst != nil {
		w := bufio.NewWriter(dst)
		emit := func(start, idx int64, line []byte) error {
			if _, err := w.Write(line); err != nil {
				return errdefs.New(errdefs.KindIO, err)
			}
			return nil
		}
		finish := func() error {
			if err := w.Flush(); err != nil {
				return errdefs.New(errdefs.KindIO, err)
			}
			return nil
		}
		return emit, finish, nil
	}

	tpl, err := drain.ParseTemplate(opts.OutputTemplate)
	if err != nil {
		return nil, nil, err
	}
	useStdout := opts.OutputTemplate == "-" || opts.OutputTemplate == ""
	var stdout io.Writer = os.Stdout
	var pager *drain.Pager
	if useStdout && drain.ShouldPage(true, false) {
		pager, err = drain.StartPager(opts.PagerCmd)
		if err != nil {
			return nil, nil, err
		}
		stdout = pager.Stdin
	}
	sink := drain.NewFileSink(tpl, stdout)
	emit := func(start, idx int64, line []byte) error {
		return sink.Write(start, idx, line)
	}
	finish := func() error {
		if err := sink.Close(); err != nil {
			return err
		}
		if pager != nil {
			return pager.Wait()
		}
		return nil
	}
	return emit, finish, nil
}

// runStreaming drives stages 3-5 windowed: the drain pulls one slice at
// a time, formats it from the segmenter's retained bytes, and releases
// the window behind it. Retention stays bounded by the slice spacing.
func runStreaming(opts *Options, s2 io.Reader, dst io.Writer) error {
	r := stream.NewReader(s2)
	greedy := !opts.MergeSet
	seq, err := buildSeq(opts, r, greedy)
	if err != nil {
		return err
	}
	emit, finish, err := newEmitter(opts, dst)
	if err != nil {
		return err
	}

	formatter := hexcodec.NewFormatter(opts.OutFormat, nominalWidth(opts))
	var line bytes.Buffer
	w := bufio.NewWriter(&line)
	for i := int64(0); ; i++ {
		s, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		start := s.Start
		if start < 0 {
			start = 0
		}
		view, err := r.Bytes(start, s.End)
		if err != nil {
			return err
		}
		line.Reset()
		w.Reset(&line)
		if err := formatter.WriteLine(w, uint64(start), view); err != nil {
			return errdefs.New(errdefs.KindIO, err)
		}
		if err := w.Flush(); err != nil {
			return errdefs.New(errdefs.KindIO, err)
		}
		if err := emit(s.Start, i, line.Bytes()); err != nil {
			return err
		}
		r.Release(start)
	}
	return finish()
}

// spooledSlices computes the full Stage-3 slice list against the spool.
// Find and walk still scan windowed (over a fresh segmenter on the
// spool); only the offsets are collected.
func spooledSlices(opts *Options, sp *stream.Spool, length int64) ([]slicer.Slice, error) {
	switch opts.Stage3 {
	case Stage3Find:
		seq, err := slicer.NewFind(stream.NewReader(sp.Reader()), opts.FindArray, true)
		if err != nil {
			return nil, err
		}
		return slicer.Collect(seq)
	case Stage3Walk:
		return slicer.Collect(slicer.NewWalk(stream.NewReader(sp.Reader()), opts.WalkExprs))
	case Stage3Slice:
		return slicer.SliceMode(length, opts.SliceRanges)
	case Stage3Guide:
		recs, err := loadGuide(opts.GuideFile)
		if err != nil {
			return nil, err
		}
		return slicer.Guide(recs)
	default:
		return slicer.Width(length, opts.WidthN, opts.WidthRange)
	}
}

// spooledSliceOps runs regex, invert, extend, merge, lines in that
// fixed order over the full list, skipping any not requested.
func spooledSliceOps(opts *Options, sp *stream.Spool, length int64, slices []slicer.Slice) ([]slicer.Slice, error) {
	var err error
	if opts.RegexSet {
		slices, err = sliceops.Regex(slices, sp, length, opts.RegexPattern)
		if err != nil {
			return nil, err
		}
	}
	if opts.InvertSet {
		slices, err = sliceops.Invert(slices, length, opts.InvertRanges)
		if err != nil {
			return nil, err
		}
	}
	if opts.ExtendSet {
		slices, err = sliceops.Extend(slices, opts.ExtendRanges)
		if err != nil {
			return nil, err
		}
	}
	if opts.MergeSet {
		slices = sliceops.Merge(slices, opts.MergeN)
	}
	if opts.LinesSet {
		slices, err = sliceops.Lines(slices, opts.LinesRanges)
		if err != nil {
			return nil, err
		}
	}
	return slices, nil
}

// runSpooled spills S2 to a spool, computes the full slice list, then
// drains from the spool by offset. The spool is the single retained
// copy: patch-back rereads it after the child exits, and the drain
// reads each slice's bytes back from it.
func runSpooled(opts *Options, s2 io.Reader, dst io.Writer) error {
	sp, err := stream.NewSpool()
	if err != nil {
		return err
	}
	defer sp.Close()
	if _, err := io.Copy(sp, s2); err != nil {
		return errdefs.WrapIO(err)
	}
	length := sp.Size()

	slices, err := spooledSlices(opts, sp, length)
	if err != nil {
		return err
	}
	slices, err = spooledSliceOps(opts, sp, length, slices)
	if err != nil {
		return err
	}

	if opts.PatchBackCmd != "" {
		if dst != nil {
			return drain.Run(opts.PatchBackCmd, sp, slices, opts.OutFormat, nominalWidth(opts), dst)
		}
		var out bytes.Buffer
		if err := drain.Run(opts.PatchBackCmd, sp, slices, opts.OutFormat, nominalWidth(opts), &out); err != nil {
			return err
		}
		return writeOutput(opts, out.Bytes())
	}

	emit, finish, err := newEmitter(opts, dst)
	if err != nil {
		return err
	}
	formatter := hexcodec.NewFormatter(opts.OutFormat, nominalWidth(opts))
	var line bytes.Buffer
	w := bufio.NewWriter(&line)
	var buf []byte
	for i, s := range slices {
		c := s.Clamp(length)
		if int64(cap(buf)) < c.Len() {
			buf = make([]byte, c.Len())
		}
		buf = buf[:c.Len()]
		if _, err := sp.ReadAt(buf, c.Start); err != nil {
			return err
		}
		line.Reset()
		w.Reset(&line)
		if err := formatter.WriteLine(w, uint64(c.Start), buf); err != nil {
			return errdefs.New(errdefs.KindIO, err)
		}
		if err := w.Flush(); err != nil {
			return errdefs.New(errdefs.KindIO, err)
		}
		if err := emit(s.Start, int64(i), line.Bytes()); err != nil {
			return err
		}
	}
	return finish()
}

// writeOutput renders the whole (post-patch-back) result through the
// template once: patch-back's result is a flat stream, not a slice
// sequence.
func writeOutput(opts *Options, result []byte) error {
	tpl, err := drain.ParseTemplate(opts.OutputTemplate)
	if err != nil {
		return err
	}
	sink := drain.NewFileSink(tpl, os.Stdout)
	if err := sink.Write(0, 0, result); err != nil {
		return err
	}
	return sink.Close()
}

func run(opts *Options, s1 io.Reader, dst io.Writer) error {
	s2, cleanup, err := buildStage2(opts, s1)
	defer cleanup()
	if err != nil {
		return err
	}
	if needSpool(opts) {
		return runSpooled(opts, s2, dst)
	}
	return runStreaming(opts, s2, dst)
}

// RunInplaceOne drives stages 2-5 for a single --inplace file: src is
// the file's own content, dst its replacement temp file.
func RunInplaceOne(opts *Options, src io.Reader, dst io.Writer) error {
	return run(opts, src, dst)
}

// Run drives the whole pipeline for the non-inplace modes: srcs are the
// already-opened input streams for cat/zip multiplexing.
func Run(opts *Options, srcs []io.Reader) error {
	return run(opts, BuildStage1(opts, srcs), nil)
}
