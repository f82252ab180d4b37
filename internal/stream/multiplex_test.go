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

package stream

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestCat_PadsEachSourceToMultiple(t *testing.T) {
	srcs := []io.Reader{strings.NewReader("Hello\n"), strings.NewReader("world\n")}
	out, err := io.ReadAll(Cat(srcs, 5, 0))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []byte("Hello\n\x00\x00\x00\x00world\n\x00\x00\x00\x00")
	if !bytes.Equal(out, want) {
		t.Errorf("Cat = %q, want %q", out, want)
	}
}

func TestCat_NoPaddingWhenNIsOne(t *testing.T) {
	srcs := []io.Reader{strings.NewReader("ab"), strings.NewReader("cd")}
	out, err := io.ReadAll(Cat(srcs, 1, 0xff))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(out) != "abcd" {
		t.Errorf("Cat = %q, want %q", out, "abcd")
	}
}

func TestCat_AlreadyAlignedSourceGetsNoPadding(t *testing.T) {
	srcs := []io.Reader{strings.NewReader("abcd")}
	out, err := io.ReadAll(Cat(srcs, 2, 0xff))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(out) != "abcd" {
		t.Errorf("Cat = %q, want %q", out, "abcd")
	}
}

func TestZip_RoundRobin(t *testing.T) {
	srcs := []io.Reader{strings.NewReader("aabb"), strings.NewReader("ccdd")}
	out, err := io.ReadAll(Zip(srcs, 2, 0))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(out) != "aaccbbdd" {
		t.Errorf("Zip = %q, want %q", out, "aaccbbdd")
	}
}

func TestZip_ExhaustedSourceContributesFiller(t *testing.T) {
	srcs := []io.Reader{strings.NewReader("ab"), strings.NewReader("wxyz")}
	out, err := io.ReadAll(Zip(srcs, 2, '.'))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	// Round 1: ab wx. Round 2: first source is exhausted mid-read and
	// pads its short round; second still has yz.
	if string(out) != "abwx..yz" {
		t.Errorf("Zip = %q, want %q", out, "abwx..yz")
	}
}

func TestZip_ShortFinalReadIsPadded(t *testing.T) {
	srcs := []io.Reader{strings.NewReader("abc")}
	out, err := io.ReadAll(Zip(srcs, 2, 0))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(out, []byte{'a', 'b', 'c', 0}) {
		t.Errorf("Zip = %q, want %q", out, "abc\x00")
	}
}

func TestStdinGuard_RejectsSecondClaim(t *testing.T) {
	g := &StdinGuard{}
	if err := g.Claim("file.bin"); err != nil {
		t.Fatalf("Claim(file): %v", err)
	}
	if err := g.Claim("-"); err != nil {
		t.Fatalf("Claim(-): %v", err)
	}
	if err := g.Claim("/dev/stdin"); err == nil {
		t.Fatal("second stdin claim should fail")
	}
}

func TestDedup_PreservesFirstOccurrenceOrder(t *testing.T) {
	got := Dedup([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Dedup = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Dedup[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
