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

package eval

import (
	"encoding/binary"
	"fmt"

	"github.com/bsed-project/bsed/internal/errdefs"
)

// bound is a bitmask of which context identifiers a call site has bound.
// Only s/e/n/l/b/h/i/l that are actually in scope may be referenced;
// anything else is ErrUnknownIdent.
type bound uint8

const (
	BoundS bound = 1 << iota
	BoundE
	BoundN
	BoundL
	BoundWindow // b, h, i, l array views share one backing window
)

// Context supplies the identifier bindings for one evaluation. Window is
// the byte view that b[i]/h[i]/i[i]/l[i] index into; reads past the end
// of Window are zero-filled rather than erroring, matching the filler
// byte's role elsewhere in the pipeline.
type Context struct {
	Bound  bound
	S, E   int64
	N      int64
	L      int64
	Window []byte
}

// Eval interprets n against ctx. The tree is a single concrete struct
// type rather than a per-node interface, so Eval is one flat switch with
// no dynamic dispatch on the hot walk/extend/lines re-evaluation path.
func Eval(n *Node, ctx *Context) (int64, error) {
	switch n.op {
	case opLit:
		return n.lit, nil

	case opIdent:
		return evalIdent(n.name, ctx)

	case opIndex:
		idx, err := Eval(n.a, ctx)
		if err != nil {
			return 0, err
		}
		if idx < 0 {
			return 0, errdefs.New(errdefs.KindSEMANTIC, errdefs.ErrNegativeIndex)
		}
		return evalArrayIndex(n.name, idx, ctx)

	case opNeg:
		a, err := Eval(n.a, ctx)
		return -a, err
	case opNot:
		a, err := Eval(n.a, ctx)
		return boolToInt(a == 0), err
	case opBitNot:
		a, err := Eval(n.a, ctx)
		return ^a, err
	}

	a, err := Eval(n.a, ctx)
	if err != nil {
		return 0, err
	}

	// Short-circuit && and || before evaluating the right operand.
	if n.op == opAnd {
		if a == 0 {
			return 0, nil
		}
		b, err := Eval(n.b, ctx)
		return boolToInt(b != 0), err
	}
	if n.op == opOr {
		if a != 0 {
			return 1, nil
		}
		b, err := Eval(n.b, ctx)
		return boolToInt(b != 0), err
	}

	b, err := Eval(n.b, ctx)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case opAdd:
		return a + b, nil
	case opSub:
		return a - b, nil
	case opMul:
		return a * b, nil
	case opDiv:
		if b == 0 {
			return 0, errdefs.New(errdefs.KindSEMANTIC, errdefs.ErrDivisionByZero)
		}
		return a / b, nil
	case opMod:
		if b == 0 {
			return 0, errdefs.New(errdefs.KindSEMANTIC, errdefs.ErrDivisionByZero)
		}
		return a % b, nil
	case opShl:
		return a << uint64(b), nil
	case opShr:
		return a >> uint64(b), nil
	case opLt:
		return boolToInt(a < b), nil
	case opLe:
		return boolToInt(a <= b), nil
	case opGt:
		return boolToInt(a > b), nil
	case opGe:
		return boolToInt(a >= b), nil
	case opEq:
		return boolToInt(a == b), nil
	case opNe:
		return boolToInt(a != b), nil
	case opBitAnd:
		return a & b, nil
	case opBitXor:
		return a ^ b, nil
	case opBitOr:
		return a | b, nil
	default:
		return 0, fmt.Errorf("eval: unhandled op %d", n.op)
	}
}

// EvalRange evaluates a Range's bounds and returns [start, end), clamping
// a negative span to an empty range.
func EvalRange(r Range, ctx *Context) (start, end int64, err error) {
	start, err = Eval(r.Start, ctx)
	if err != nil {
		return 0, 0, err
	}
	end, err = Eval(r.End, ctx)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func evalIdent(name string, ctx *Context) (int64, error) {
	switch name {
	case "s":
		if ctx.Bound&BoundS == 0 {
			return 0, unbound(name)
		}
		return ctx.S, nil
	case "e":
		if ctx.Bound&BoundE == 0 {
			return 0, unbound(name)
		}
		return ctx.E, nil
	case "n":
		if ctx.Bound&BoundN == 0 {
			return 0, unbound(name)
		}
		return ctx.N, nil
	case "l":
		if ctx.Bound&BoundL == 0 {
			return 0, unbound(name)
		}
		return ctx.L, nil
	default:
		return 0, unbound(name)
	}
}

// evalArrayIndex reads a typed little-endian value out of ctx.Window at
// the byte offset implied by name's element width. b is i8 (width 1), h
// is i16 (width 2), i is i32 (width 4), l is i64 (width 8); bytes beyond
// the window are treated as zero.
func evalArrayIndex(name string, idx int64, ctx *Context) (int64, error) {
	if ctx.Bound&BoundWindow == 0 {
		return 0, unbound(name)
	}
	var width int64
	switch name {
	case "b":
		width = 1
	case "h":
		width = 2
	case "i":
		width = 4
	case "l":
		width = 8
	default:
		return 0, unbound(name)
	}

	off := idx * width
	buf := make([]byte, width)
	if off < int64(len(ctx.Window)) {
		avail := int64(len(ctx.Window)) - off
		n := width
		if avail < n {
			n = avail
		}
		copy(buf, ctx.Window[off:off+n])
	}

	switch name {
	case "b":
		return int64(int8(buf[0])), nil
	case "h":
		return int64(int16(binary.LittleEndian.Uint16(buf))), nil
	case "i":
		return int64(int32(binary.LittleEndian.Uint32(buf))), nil
	case "l":
		return int64(binary.LittleEndian.Uint64(buf)), nil
	default:
		return 0, unbound(name)
	}
}

func unbound(name string) error {
	return errdefs.Newf(errdefs.KindSEMANTIC, errdefs.ErrUnknownIdent, name)
}
