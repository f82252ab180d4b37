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

import "testing"

func TestEval_Arithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"10 % 3", 1},
		{"1 << 4", 16},
		{"-5 + 3", -2},
		{"~0", -1},
		{"!0", 1},
		{"!5", 0},
		{"1 == 1 && 2 != 3", 1},
		{"1 > 2 || 3 >= 3", 1},
		{"5 & 3", 1},
		{"5 | 2", 7},
		{"5 ^ 1", 4},
		{"0x1F", 31},
		{"0b101", 5},
		{"0o17", 15},
		{"017", 15},
		{"0d17", 17},
		{"2k", 2000},
		{"2ki", 2048},
		{"1M", 1_000_000},
		{"1Mi", 1 << 20},
	}
	for _, c := range cases {
		n, err := Parse(c.expr)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.expr, err)
		}
		got, err := Eval(n, &Context{})
		if err != nil {
			t.Fatalf("Eval(%q): %v", c.expr, err)
		}
		if got != c.want {
			t.Errorf("Eval(%q) = %d, want %d", c.expr, got, c.want)
		}
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	n, err := Parse("1/0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Eval(n, &Context{}); err == nil {
		t.Fatal("expected division-by-zero error, got nil")
	}
}

func TestEval_NegativeIndex(t *testing.T) {
	n, err := Parse("b[-1]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx := &Context{Bound: BoundWindow, Window: []byte{1, 2, 3, 4}}
	if _, err := Eval(n, ctx); err == nil {
		t.Fatal("expected negative-index error, got nil")
	}
}

func TestEval_UnboundIdentifier(t *testing.T) {
	n, err := Parse("s + 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Eval(n, &Context{}); err == nil {
		t.Fatal("expected unbound-identifier error, got nil")
	}
}

func TestEval_ArrayViews(t *testing.T) {
	window := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	ctx := &Context{Bound: BoundWindow, Window: window}

	cases := []struct {
		expr string
		want int64
	}{
		{"b[0]", 1},
		{"b[1]", 2},
		{"h[0]", 0x0201},
		{"i[0]", 0x04030201},
		{"l[0]", 0x0807060504030201},
		{"b[100]", 0}, // past the window reads as zero
	}
	for _, c := range cases {
		n, err := Parse(c.expr)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.expr, err)
		}
		got, err := Eval(n, ctx)
		if err != nil {
			t.Fatalf("Eval(%q): %v", c.expr, err)
		}
		if got != c.want {
			t.Errorf("Eval(%q) = %d, want %d", c.expr, got, c.want)
		}
	}
}

func TestEval_StreamBounds(t *testing.T) {
	ctx := &Context{Bound: BoundS | BoundE | BoundN | BoundL, S: 10, E: 20, N: 5, L: 2}
	n, err := Parse("s..e")
	_ = n
	if err == nil {
		t.Fatalf("Parse(\"s..e\") as a scalar expression should fail, it is a range")
	}

	r, err := ParseRange("s..e")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	start, end, err := EvalRange(r, ctx)
	if err != nil {
		t.Fatalf("EvalRange: %v", err)
	}
	if start != 10 || end != 20 {
		t.Errorf("EvalRange = [%d,%d), want [10,20)", start, end)
	}
}

func TestEval_EmptyRangeWhenEndBeforeStart(t *testing.T) {
	r, err := ParseRange("5..2")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	start, end, err := EvalRange(r, &Context{})
	if err != nil {
		t.Fatalf("EvalRange: %v", err)
	}
	if start != 5 || end != 5 {
		t.Errorf("EvalRange(5..2) = [%d,%d), want [5,5)", start, end)
	}
}

func TestParseRangeList(t *testing.T) {
	rs, err := ParseRangeList("0..1, 2..3,")
	if err != nil {
		t.Fatalf("ParseRangeList: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("ParseRangeList returned %d ranges, want 2", len(rs))
	}
}
