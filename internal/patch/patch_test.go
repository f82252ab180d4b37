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

package patch

import (
	"bytes"
	"strings"
	"testing"
)

func apply(t *testing.T, src, patchDump string) string {
	t.Helper()
	records, err := LoadSorted(strings.NewReader(patchDump))
	if err != nil {
		t.Fatalf("LoadSorted: %v", err)
	}
	var out bytes.Buffer
	if err := Apply(&out, strings.NewReader(src), records); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out.String()
}

func TestApply_Substitution(t *testing.T) {
	got := apply(t, "Hello\n", "02 02 | 68\n")
	if got != "Heho\n" {
		t.Errorf("Apply = %q, want %q", got, "Heho\n")
	}
}

func TestApply_Insertion(t *testing.T) {
	got := apply(t, "Hello\n", "00 00 | 6c 6c\n")
	if got != "llHello\n" {
		t.Errorf("Apply = %q, want %q", got, "llHello\n")
	}
}

func TestApply_DeletionArrayOmitted(t *testing.T) {
	got := apply(t, "Hello\n", "02 02\n")
	if got != "Heo\n" {
		t.Errorf("Apply = %q, want %q", got, "Heo\n")
	}
}

func TestApply_Identity(t *testing.T) {
	got := apply(t, "Hello\n", "")
	if got != "Hello\n" {
		t.Errorf("Apply with empty patch file should be identity, got %q", got)
	}
}

func TestLoadSorted_RejectsOverlap(t *testing.T) {
	_, err := LoadSorted(strings.NewReader("00 04 | 61 62 63 64\n02 02 | 78 79\n"))
	if err == nil {
		t.Fatal("expected overlapping-patch error, got nil")
	}
}
