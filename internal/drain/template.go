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

// Package drain implements Stage 5: rendering the --output template per
// slice, the --patch-back round trip through an external command, and
// pager selection.
package drain

import (
	"strconv"
	"strings"

	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/eval"
)

// field is one {...} interpolation compiled out of a template.
type field struct {
	literal string // text preceding this field
	isVar   bool   // true for {n}/{l}, false for {(expr)}
	varName string // "n" or "l" when isVar
	expr    *eval.Node
	width   int
	conv    byte // 'd','x','X','o','b'
}

// Template is a compiled --output TEMPLATE, built once and rendered once
// per slice.
type Template struct {
	fields  []field
	trailer string
}

// ParseTemplate compiles tpl: a literal string with {VAR[:FMT]} or
// {(EXPR)[:FMT]} interpolations, VAR one of n (slice offset on stream)
// or l (slice index).
func ParseTemplate(tpl string) (*Template, error) {
	var t Template
	i := 0
	var lit strings.Builder
	for i < len(tpl) {
		c := tpl[i]
		if c != '{' {
			lit.WriteByte(c)
			i++
			continue
		}
		f, next, err := parseField(tpl, i)
		if err != nil {
			return nil, err
		}
		f.literal = lit.String()
		lit.Reset()
		t.fields = append(t.fields, f)
		i = next
	}
	t.trailer = lit.String()
	return &t, nil
}

func parseField(s string, start int) (field, int, error) {
	i := start + 1 // past '{'
	var f field

	if i < len(s) && s[i] == '(' {
		depth := 0
		exprStart := i
		for i < len(s) {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			i++
			if depth == 0 {
				break
			}
		}
		if depth != 0 {
			return field{}, 0, errdefs.New(errdefs.KindARG, errdefs.ErrUnexpectedEOF)
		}
		exprSrc := s[exprStart+1 : i-1]
		node, err := eval.Parse(exprSrc)
		if err != nil {
			return field{}, 0, err
		}
		f.expr = node
	} else {
		nameStart := i
		for i < len(s) && s[i] != ':' && s[i] != '}' {
			i++
		}
		f.isVar = true
		f.varName = s[nameStart:i]
		if f.varName != "n" && f.varName != "l" {
			return field{}, 0, errdefs.New(errdefs.KindARG, errdefs.ErrUnknownIdent)
		}
	}

	f.conv = 'd'
	if i < len(s) && s[i] == ':' {
		i++
		specStart := i
		for i < len(s) && s[i] != '}' {
			i++
		}
		spec := s[specStart:i]
		width, conv, err := parseFormatSpec(spec)
		if err != nil {
			return field{}, 0, err
		}
		f.width, f.conv = width, conv
	}

	if i >= len(s) || s[i] != '}' {
		return field{}, 0, errdefs.New(errdefs.KindARG, errdefs.ErrUnexpectedEOF)
	}
	return f, i + 1, nil
}

// parseFormatSpec reads an optional zero-padded width followed by one of
// the conversions d (decimal, default), x/X (lower/upper hex), o
// (octal), b (binary).
func parseFormatSpec(spec string) (width int, conv byte, err error) {
	if spec == "" {
		return 0, 'd', nil
	}
	j := 0
	for j < len(spec) && spec[j] >= '0' && spec[j] <= '9' {
		j++
	}
	if j > 0 {
		width, err = strconv.Atoi(spec[:j])
		if err != nil {
			return 0, 0, errdefs.New(errdefs.KindARG, errdefs.ErrBadLiteral)
		}
	}
	rest := spec[j:]
	switch rest {
	case "", "d":
		conv = 'd'
	case "x":
		conv = 'x'
	case "X":
		conv = 'X'
	case "o":
		conv = 'o'
	case "b":
		conv = 'b'
	default:
		return 0, 0, errdefs.New(errdefs.KindARG, errdefs.ErrInvalidFlag)
	}
	return width, conv, nil
}

func formatInt(v int64, width int, conv byte) string {
	var s string
	switch conv {
	case 'x':
		s = strconv.FormatInt(v, 16)
	case 'X':
		s = strings.ToUpper(strconv.FormatInt(v, 16))
	case 'o':
		s = strconv.FormatInt(v, 8)
	case 'b':
		s = strconv.FormatInt(v, 2)
	default:
		s = strconv.FormatInt(v, 10)
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

// Render produces the template's output for a slice whose offset on the
// stream is n and whose index in the slice sequence is l.
func (t *Template) Render(n, l int64) (string, error) {
	var out strings.Builder
	ctx := &eval.Context{Bound: eval.BoundN | eval.BoundL, N: n, L: l}
	for _, f := range t.fields {
		out.WriteString(f.literal)
		var v int64
		if f.isVar {
			if f.varName == "n" {
				v = n
			} else {
				v = l
			}
		} else {
			val, err := eval.Eval(f.expr, ctx)
			if err != nil {
				return "", err
			}
			v = val
		}
		out.WriteString(formatInt(v, f.width, f.conv))
	}
	out.WriteString(t.trailer)
	return out.String(), nil
}
