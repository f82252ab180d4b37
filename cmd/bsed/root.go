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

// bsed is a streamed binary stream editor: a five-stage pipeline that
// treats a hexdump as a binary patch. This file wires every CLI flag
// onto one cobra root command.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/bsed-project/bsed/cmd/config"
	"github.com/bsed-project/bsed/internal/env"
	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/eval"
	"github.com/bsed-project/bsed/internal/hexcodec"
	"github.com/bsed-project/bsed/internal/logging"
	"github.com/bsed-project/bsed/internal/pipeline"
	"github.com/bsed-project/bsed/internal/slicer"
	"github.com/bsed-project/bsed/internal/stream"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cliFlags holds the raw string/bool flag values, before compilation
// into pipeline.Options.
type cliFlags struct {
	inFormat, outFormat string

	catN    string
	zipN    string
	inplace bool

	cut   string
	pad   string
	patch string

	width string
	find  string
	walk  string
	slice string
	guide string

	regex  string
	invert string
	extend string
	merge  string
	lines  string

	output    string
	patchBack string

	filler string
	pager  string

	logLevel string
	logFile  string
	config   string
}

// NewRootCmd builds bsed's single cobra command.
func NewRootCmd() *cobra.Command {
	var f cliFlags

	root := &cobra.Command{
		Use:          "bsed [flags] [FILE...]",
		Short:        "a streamed binary stream editor",
		Long:         `bsed transforms byte streams through cut/pad/patch, slicing, and slice-level edits, then drains them to a file, pager, or patch-back command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load(f.configResolved()); err != nil {
				return errdefs.New(errdefs.KindARG, err)
			}
			if err := env.BindAll(); err != nil {
				return errdefs.New(errdefs.KindARG, err)
			}
			return logging.SetupLogger(cmd, resolveLogFile(f.logFile), resolveLogLevel(f.logLevel))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBsed(cmd, args, &f)
		},
	}

	registerFlags(root, &f)
	return root
}

func (f *cliFlags) configResolved() string {
	if f.config != "" {
		return f.config
	}
	return config.DefaultConfigFile()
}

func resolveLogLevel(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return env.LOG_LEVEL.ValueOrDefault()
}

func resolveLogFile(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return env.LOG_FILE.ValueOrDefault()
}

func registerFlags(cmd *cobra.Command, f *cliFlags) {
	fl := cmd.Flags()

	fl.StringVarP(&f.inFormat, "in-format", "F", "b", "input format: b, nnb, x, nnx")
	fl.StringVarP(&f.outFormat, "out-format", "f", "x", "output format: b, nnb, x, nnx")

	fl.StringVarP(&f.catN, "cat", "c", "1", "Stage 1: concatenate inputs, padding each to a multiple of N")
	fl.StringVarP(&f.zipN, "zip", "z", "", "Stage 1: round-robin N bytes from each input")
	fl.BoolVarP(&f.inplace, "inplace", "i", false, "Stage 1: run the pipeline once per file, rewriting it atomically")

	fl.StringVarP(&f.cut, "cut", "n", "", "Stage 2: emit the union of RANGES from the input stream")
	fl.StringVarP(&f.pad, "pad", "a", "", "Stage 2: prepend N and append M filler bytes")
	fl.StringVarP(&f.patch, "patch", "p", "", "Stage 2: apply patch records from FILE")

	fl.StringVarP(&f.width, "width", "w", "16,s..e", "Stage 3: tile the stream into windows of N bytes")
	fl.StringVarP(&f.find, "find", "d", "", "Stage 3: emit one slice per match of hex ARRAY")
	fl.StringVarP(&f.walk, "walk", "k", "", "Stage 3: evaluate EXPR[,...] cyclically for chunk lengths")
	fl.StringVarP(&f.slice, "slice", "r", "", "Stage 3: emit one slice per evaluated range")
	fl.StringVarP(&f.guide, "guide", "g", "", "Stage 3: emit slices from sorted FILE records")

	fl.StringVarP(&f.regex, "regex", "e", "", "Stage 4: emit one slice per within-slice regex match")
	fl.StringVarP(&f.invert, "invert", "v", "", "Stage 4: emit RANGES applied to the complement of input slices")
	fl.StringVarP(&f.extend, "extend", "x", "", "Stage 4: emit RANGES applied to each input slice's bounds")
	fl.StringVarP(&f.merge, "merge", "m", "", "Stage 4: merge adjacent slices within N bytes")
	fl.StringVarP(&f.lines, "lines", "l", "", "Stage 4: keep only slices whose index is in RANGES")

	fl.StringVarP(&f.output, "output", "o", "-", "Stage 5: output TEMPLATE (\"-\" for stdout)")
	fl.StringVarP(&f.patchBack, "patch-back", "P", "", "Stage 5: pipe slices through CMD and apply its patch output")

	fl.StringVar(&f.filler, "filler", "", "filler byte, 0 <= N < 256")
	fl.StringVar(&f.pager, "pager", "", "pager command (overrides $PAGER)")

	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fl.StringVar(&f.logFile, "log-file", "", "log file path (\"-\" for stderr)")
	fl.StringVar(&f.config, "config", "", "path to an alternate config file")

	cmd.Version = "0.1.0"
}

// compile turns the raw flags into pipeline.Options, validating stage
// exclusivity and compiling every expression/range once.
func compile(cmd *cobra.Command, args []string, f *cliFlags) (*pipeline.Options, error) {
	fl := cmd.Flags()
	opts := &pipeline.Options{Inputs: args}

	inSig, err := hexcodec.ParseSignature(f.inFormat)
	if err != nil {
		return nil, err
	}
	outSig, err := hexcodec.ParseSignature(f.outFormat)
	if err != nil {
		return nil, err
	}
	opts.InFormat, opts.OutFormat = inSig, outSig

	fillerV, err := evalConst(orDefault(f.filler, env.FILLER.ValueOrDefault(), "0"))
	if err != nil {
		return nil, err
	}
	if fillerV < 0 || fillerV >= 256 {
		return nil, errdefs.New(errdefs.KindRESOURCE, errdefs.ErrFillerOutOfRange)
	}
	opts.Filler = byte(fillerV)

	if err := compileStage1(fl, f, opts); err != nil {
		return nil, err
	}
	if err := compileStage2(fl, f, opts); err != nil {
		return nil, err
	}
	if err := compileStage3(fl, f, opts); err != nil {
		return nil, err
	}
	if err := compileStage4(fl, f, opts); err != nil {
		return nil, err
	}
	if err := compileStage5(fl, f, opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func orDefault(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func compileStage1(fl *pflagFlagSet, f *cliFlags, opts *pipeline.Options) error {
	catChanged := fl.Changed("cat")
	zipChanged := fl.Changed("zip")
	if countTrue(zipChanged, f.inplace) > 1 || (catChanged && (zipChanged || f.inplace)) {
		return exclusiveErr(errdefs.ErrExclusiveStage1)
	}

	opts.Inplace = f.inplace
	switch {
	case f.inplace:
		opts.Stage1 = pipeline.Stage1Inplace
	case zipChanged:
		opts.Stage1 = pipeline.Stage1Zip
		n, err := evalConst(f.zipN)
		if err != nil {
			return err
		}
		if n <= 0 {
			return errdefs.New(errdefs.KindRESOURCE, errdefs.ErrNonPositiveN)
		}
		opts.ZipN = n
	default:
		opts.Stage1 = pipeline.Stage1Cat
		n, err := evalConst(f.catN)
		if err != nil {
			return err
		}
		if n <= 0 {
			return errdefs.New(errdefs.KindRESOURCE, errdefs.ErrNonPositiveN)
		}
		opts.CatN = n
	}
	return nil
}

func compileStage2(fl *pflagFlagSet, f *cliFlags, opts *pipeline.Options) error {
	if fl.Changed("cut") {
		ranges, err := eval.ParseRangeList(f.cut)
		if err != nil {
			return err
		}
		opts.CutSet = true
		opts.CutRanges = ranges
	}
	if fl.Changed("pad") {
		n, m, err := parseIntPair(f.pad, 0, 0)
		if err != nil {
			return err
		}
		opts.PadSet = true
		opts.PadN, opts.PadM = n, m
	}
	opts.PatchFile = f.patch
	return nil
}

func compileStage3(fl *pflagFlagSet, f *cliFlags, opts *pipeline.Options) error {
	set := countTrue(fl.Changed("find"), fl.Changed("walk"), fl.Changed("slice"), fl.Changed("guide"))
	if set > 1 || (fl.Changed("width") && set > 0) {
		return exclusiveErr(errdefs.ErrExclusiveStage3)
	}

	switch {
	case fl.Changed("find"):
		opts.Stage3 = pipeline.Stage3Find
		arr, err := slicer.ParseHexArray(f.find)
		if err != nil {
			return err
		}
		opts.FindArray = arr
	case fl.Changed("walk"):
		opts.Stage3 = pipeline.Stage3Walk
		exprs, err := parseExprList(f.walk)
		if err != nil {
			return err
		}
		opts.WalkExprs = exprs
	case fl.Changed("slice"):
		opts.Stage3 = pipeline.Stage3Slice
		ranges, err := eval.ParseRangeList(f.slice)
		if err != nil {
			return err
		}
		opts.SliceRanges = ranges
	case fl.Changed("guide"):
		opts.Stage3 = pipeline.Stage3Guide
		opts.GuideFile = f.guide
	default:
		opts.Stage3 = pipeline.Stage3Width
		nStr, rngStr := splitPair(f.width, "s..e")
		n, err := evalConst(nStr)
		if err != nil {
			return err
		}
		ranges, err := eval.ParseRangeList(rngStr)
		if err != nil {
			return err
		}
		if len(ranges) > 1 {
			return errdefs.New(errdefs.KindARG, errdefs.ErrMultipleWidthRange)
		}
		opts.WidthN, opts.WidthRange = n, ranges[0]
	}
	return nil
}

func compileStage4(fl *pflagFlagSet, f *cliFlags, opts *pipeline.Options) error {
	if fl.Changed("regex") {
		re, err := regexp.Compile(f.regex)
		if err != nil {
			return errdefs.New(errdefs.KindARG, err)
		}
		opts.RegexSet = true
		opts.RegexPattern = re
	}
	if fl.Changed("invert") {
		ranges, err := eval.ParseRangeList(f.invert)
		if err != nil {
			return err
		}
		opts.InvertSet = true
		opts.InvertRanges = ranges
	}
	if fl.Changed("extend") {
		ranges, err := eval.ParseRangeList(f.extend)
		if err != nil {
			return err
		}
		opts.ExtendSet = true
		opts.ExtendRanges = ranges
	}
	if fl.Changed("merge") {
		n, err := evalConst(f.merge)
		if err != nil {
			return err
		}
		opts.MergeSet = true
		opts.MergeN = n
	}
	if fl.Changed("lines") {
		ranges, err := eval.ParseRangeList(f.lines)
		if err != nil {
			return err
		}
		opts.LinesSet = true
		opts.LinesRanges = ranges
	}
	return nil
}

func compileStage5(fl *pflagFlagSet, f *cliFlags, opts *pipeline.Options) error {
	if fl.Changed("output") && fl.Changed("patch-back") {
		return exclusiveErr(errdefs.ErrExclusiveStage5)
	}
	opts.OutputTemplate = f.output
	opts.PatchBackCmd = f.patchBack
	opts.PagerCmd = resolvePager(f.pager)
	return nil
}

func resolvePager(flagVal string) string {
	envVal := os.Getenv("PAGER")
	if envVal == "" {
		envVal = env.PAGER_CMD.ValueOrDefault()
	}
	return pagerPrecedence(flagVal, envVal)
}

// runBsed validates stdin dedup, opens inputs, and drives the pipeline
// (or the --inplace per-file loop).
func runBsed(cmd *cobra.Command, args []string, f *cliFlags) error {
	opts, err := compile(cmd, args, f)
	if err != nil {
		return err
	}
	if len(opts.Inputs) == 0 {
		opts.Inputs = []string{"-"}
	}

	guard := &stream.StdinGuard{}
	for _, name := range opts.Inputs {
		if err := guard.Claim(name); err != nil {
			return err
		}
	}
	if opts.PatchFile != "" {
		if err := guard.Claim(opts.PatchFile); err != nil {
			return err
		}
	}
	if opts.GuideFile != "" {
		if err := guard.Claim(opts.GuideFile); err != nil {
			return err
		}
	}

	if opts.Inplace {
		return runInplace(opts)
	}
	return runStreaming(opts)
}

func runStreaming(opts *pipeline.Options) error {
	srcs, err := stream.OpenAll(opts.Inputs)
	if err != nil {
		return err
	}
	defer stream.CloseAll(srcs)

	readers := make([]io.Reader, len(srcs))
	for i, rc := range srcs {
		readers[i] = rc
	}
	return pipeline.Run(opts, readers)
}

func runInplace(opts *pipeline.Options) error {
	return stream.RunInplace(opts.Inputs, func(src, dst *os.File) error {
		return pipeline.RunInplaceOne(opts, src, dst)
	})
}

// Execute is the package entry point called by main.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		logger := logging.FromContext(root.Context())
		logger.Error(err.Error())
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		var pe *errdefs.PipelineError
		if ok := asArgError(err, &pe); ok {
			fmt.Fprintln(os.Stderr, root.UsageString())
		}
		return errdefs.ExitCode(err)
	}
	return 0
}

func init() {
	viper.SetEnvPrefix(env.Prefix)
	viper.AutomaticEnv()
}
