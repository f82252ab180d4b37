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

package main

import (
	"errors"
	"strings"

	"github.com/bsed-project/bsed/internal/drain"
	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/eval"
	"github.com/spf13/pflag"
)

// pflagFlagSet aliases the pflag type so the compileStage* helpers read
// the same whether cobra hands back its Flags() or a test builds one.
type pflagFlagSet = pflag.FlagSet

// evalConst compiles and evaluates expr with no bound identifiers: the
// scalar-expression grammar is shared by every flag that takes a bare
// integer (N for --cat/--zip/--pad/--width/--merge/--filler), not just
// the s/e-bound ones used mid-pipeline.
func evalConst(expr string) (int64, error) {
	node, err := eval.Parse(expr)
	if err != nil {
		return 0, err
	}
	return eval.Eval(node, &eval.Context{})
}

// splitPair splits "N[,M]" into its two comma-separated halves, M
// defaulting to defM when absent.
func splitPair(s, defM string) (string, string) {
	parts := strings.SplitN(s, ",", 2)
	n := parts[0]
	m := defM
	if len(parts) == 2 {
		m = parts[1]
	}
	return n, m
}

// parseIntPair evaluates "N[,M]" as two scalar expressions.
func parseIntPair(s string, defN, defM int64) (int64, int64, error) {
	nStr, mStr := splitPair(s, "")
	n, m := defN, defM
	var err error
	if nStr != "" {
		n, err = evalConst(nStr)
		if err != nil {
			return 0, 0, err
		}
	}
	if mStr != "" {
		m, err = evalConst(mStr)
		if err != nil {
			return 0, 0, err
		}
	}
	return n, m, nil
}

// parseExprList splits s on top-level commas into scalar expressions
// (used by --walk EXPR[,...], whose grammar has no comma operator so a
// plain split is safe).
func parseExprList(s string) ([]*eval.Node, error) {
	parts := strings.Split(s, ",")
	out := make([]*eval.Node, 0, len(parts))
	for _, p := range parts {
		node, err := eval.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

// countTrue reports how many of the given exclusive-group flags fired,
// used to enforce the mutually-exclusive stage groups.
func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func exclusiveErr(sentinel error) error {
	return errdefs.New(errdefs.KindARG, sentinel)
}

// pagerPrecedence resolves the pager command: --pager flag, then the
// PAGER/BSED_PAGER_CMD environment, then the built-in default.
func pagerPrecedence(flagVal, envVal string) string {
	return drain.SelectPager(flagVal, envVal)
}

// asArgError reports whether err carries KindARG, the one taxonomy class
// that also prints a usage hint.
func asArgError(err error, pe **errdefs.PipelineError) bool {
	return errors.As(err, pe) && (*pe).Kind == errdefs.KindARG
}
