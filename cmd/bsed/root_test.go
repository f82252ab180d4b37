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
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runPipeline executes the root command with args, capturing everything
// the drain writes to the real stdout.
func runPipeline(t *testing.T, args ...string) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	saved := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = saved }()

	root := NewRootCmd()
	root.SetArgs(args)
	root.SilenceErrors = true
	execErr := root.Execute()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	r.Close()
	return string(out), execErr
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDumpDefaultFormat(t *testing.T) {
	in := writeFile(t, "hello.bin", "Hello\n")
	out, err := runPipeline(t, in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "000000000000 0006 | 48 65 6c 6c 6f 0a" +
		strings.Repeat("   ", 10) + " | Hello.\n"
	if out != want {
		t.Errorf("dump = %q, want %q", out, want)
	}
}

func TestPatchReplacement(t *testing.T) {
	in := writeFile(t, "hello.bin", "Hello\n")
	patch := writeFile(t, "patch.txt", "02 02 | 68\n")
	out, err := runPipeline(t, "-f", "b", "-p", patch, in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "Heho\n" {
		t.Errorf("patched = %q, want %q", out, "Heho\n")
	}
}

func TestPatchInsertion(t *testing.T) {
	in := writeFile(t, "hello.bin", "Hello\n")
	patch := writeFile(t, "patch.txt", "00 00 | 6c 6c\n")
	out, err := runPipeline(t, "-f", "b", "-p", patch, in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "llHello\n" {
		t.Errorf("patched = %q, want %q", out, "llHello\n")
	}
}

func TestPatchDeletionWithoutArray(t *testing.T) {
	in := writeFile(t, "hello.bin", "Hello\n")
	patch := writeFile(t, "patch.txt", "02 02\n")
	out, err := runPipeline(t, "-f", "b", "-p", patch, in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "Heo\n" {
		t.Errorf("patched = %q, want %q", out, "Heo\n")
	}
}

func TestCatAlignment(t *testing.T) {
	a := writeFile(t, "a.bin", "Hello\n")
	b := writeFile(t, "b.bin", "world\n")
	out, err := runPipeline(t, "-f", "b", "-c", "5", a, b)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "Hello\n\x00\x00\x00\x00world\n\x00\x00\x00\x00"
	if out != want {
		t.Errorf("cat = %q, want %q", out, want)
	}
}

func TestCutThenPadComposition(t *testing.T) {
	in := writeFile(t, "hello.bin", "Hello\n")
	out, err := runPipeline(t, "-f", "b", "-a", "2,2", "-n", "1..2,4..5", in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "\x00\x00eo\x00\x00" {
		t.Errorf("cut+pad = %q, want %q", out, "\x00\x00eo\x00\x00")
	}
}

func TestFindMerge(t *testing.T) {
	in := writeFile(t, "fox.txt", "The quick brown fox jumps over the lazy dog.\n")
	out, err := runPipeline(t, "-d", "6f", "-m", "4", in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "00000000000c 0006 |") {
		t.Errorf("line 0 = %q, want offset 0c length 6", lines[0])
	}
	if !strings.Contains(lines[0], "| own fo") {
		t.Errorf("line 0 = %q, want mosaic %q", lines[0], "own fo")
	}
	if !strings.HasPrefix(lines[1], "00000000001a 0001 |") {
		t.Errorf("line 1 = %q, want offset 1a length 1", lines[1])
	}
}

func TestTemplateOutputPerTile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, "hello.bin", "Hello\n")
	tpl := filepath.Join(dir, "out.{n:02x}.txt")
	if _, err := runPipeline(t, "-w", "3", "-o", tpl, in); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "out.00.txt"))
	if err != nil {
		t.Fatalf("out.00.txt: %v", err)
	}
	if !strings.HasPrefix(string(first), "000000000000 0003 | 48 65 6c") {
		t.Errorf("out.00.txt = %q", first)
	}
	second, err := os.ReadFile(filepath.Join(dir, "out.03.txt"))
	if err != nil {
		t.Fatalf("out.03.txt: %v", err)
	}
	if !strings.HasPrefix(string(second), "000000000003 0003 | 6c 6f 0a") {
		t.Errorf("out.03.txt = %q", second)
	}
}

func TestRoundTripThroughXFormat(t *testing.T) {
	in := writeFile(t, "hello.bin", "Hello\n")
	dump, err := runPipeline(t, in)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	dumpFile := writeFile(t, "dump.txt", dump)
	restored, err := runPipeline(t, "-F", "x", "-f", "b", dumpFile)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != "Hello\n" {
		t.Errorf("round trip = %q, want %q", restored, "Hello\n")
	}
}

func TestInplaceRewrite(t *testing.T) {
	path := writeFile(t, "hello.bin", "Hello\n")
	root := NewRootCmd()
	root.SetArgs([]string{"-i", "-f", "b", "-a", "0,1", path})
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "Hello\n\x00" {
		t.Errorf("inplace result = %q, want %q", got, "Hello\n\x00")
	}
}

func TestDuplicateStdinRejected(t *testing.T) {
	if _, err := runPipeline(t, "-p", "-", "-"); err == nil {
		t.Fatal("duplicate stdin should be rejected")
	}
}

func TestExclusiveStageFlagsRejected(t *testing.T) {
	in := writeFile(t, "hello.bin", "Hello\n")
	if _, err := runPipeline(t, "-c", "2", "-z", "2", in); err == nil {
		t.Fatal("--cat with --zip should be rejected")
	}
	if _, err := runPipeline(t, "-d", "6f", "-r", "0..1", in); err == nil {
		t.Fatal("--find with --slice should be rejected")
	}
}

func TestBadFormatSignatureRejected(t *testing.T) {
	in := writeFile(t, "hello.bin", "Hello\n")
	if _, err := runPipeline(t, "-F", "xx", in); err == nil {
		t.Fatal("bad format signature should be rejected")
	}
}
