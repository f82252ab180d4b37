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

package drain

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestTemplate_VarInterpolation(t *testing.T) {
	tpl, err := ParseTemplate("out.{n:02x}.txt")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	got, err := tpl.Render(0, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "out.00.txt" {
		t.Errorf("Render(0,0) = %q, want %q", got, "out.00.txt")
	}
	got, err = tpl.Render(3, 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "out.03.txt" {
		t.Errorf("Render(3,1) = %q, want %q", got, "out.03.txt")
	}
}

func TestTemplate_ExprInterpolation(t *testing.T) {
	tpl, err := ParseTemplate("{(n+l):04d}")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	got, err := tpl.Render(10, 2)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "0012" {
		t.Errorf("Render = %q, want %q", got, "0012")
	}
}

func TestTemplate_DashGoesToStdout(t *testing.T) {
	tpl, err := ParseTemplate("-")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	var stdout bytes.Buffer
	sink := NewFileSink(tpl, &stdout)
	if err := sink.Write(0, 0, []byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if stdout.String() != "hi" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "hi")
	}
}

func TestFileSink_TruncateThenAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	tpl, err := ParseTemplate(path)
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	var stdout bytes.Buffer
	sink := NewFileSink(tpl, &stdout)
	if err := sink.Write(0, 0, []byte("AB")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Write(1, 1, []byte("CD")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "ABCD" {
		t.Errorf("file contents = %q, want %q", got, "ABCD")
	}
}

func TestSelectPager_Precedence(t *testing.T) {
	if got := SelectPager("custom", "fromenv"); got != "custom" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := SelectPager("", "fromenv"); got != "fromenv" {
		t.Errorf("env should win over default, got %q", got)
	}
	if got := SelectPager("", ""); got != DefaultPager {
		t.Errorf("default should apply, got %q", got)
	}
}
